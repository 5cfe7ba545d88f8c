package model

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// bcryptCost bcrypt 计算成本
const bcryptCost = 12

// ErrEmptyPassword 密码为空
var ErrEmptyPassword = errors.New("password must not be empty")

// User 用户
//
// Password 为瞬态明文字段，不落库；存储层在 Create/Save 前调用
// HashPendingPassword 将其转换为 Salt + HashedPassword。
type User struct {
	ID                string    `json:"_id" bson:"_id" db:"id"`
	Name              string    `json:"name" bson:"name" db:"name"`
	Email             string    `json:"email" bson:"email" db:"email"`
	HashedPassword    string    `json:"-" bson:"hashed_password" db:"hashed_password"`
	Salt              string    `json:"-" bson:"salt" db:"salt"`
	Role              UserRole  `json:"role" bson:"role" db:"role"`
	ResetPasswordLink string    `json:"-" bson:"resetPasswordLink" db:"reset_password_link"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`

	Password string `json:"-" bson:"-" db:"-"`
}

// PublicUser 用户公开视图（不含密码、盐、重置链接）
type PublicUser struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// NewUser 构造待持久化的用户，密码由存储层写入时哈希
func NewUser(name, email, password string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Role:      UserRoleUser,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail 统一邮箱格式（去空白、小写）
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Public 返回公开视图
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// HashPendingPassword 存储层写入钩子：存在明文密码时生成新盐并哈希
//
// 每次修改密码都会轮换盐值。无明文密码时不做任何操作。
func (u *User) HashPendingPassword() error {
	if u.Password == "" {
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
		return nil
	}

	salt, err := makeSalt()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword(saltedDigest(salt, u.Password), bcryptCost)
	if err != nil {
		return err
	}

	u.Salt = salt
	u.HashedPassword = string(hash)
	u.Password = ""
	return nil
}

// Authenticate 校验明文密码
func (u *User) Authenticate(plain string) bool {
	if u.HashedPassword == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), saltedDigest(u.Salt, plain)) == nil
}

// saltedDigest HMAC-SHA256(salt, password) 的十六进制表示
// 固定 64 字节，始终在 bcrypt 的 72 字节上限内
func saltedDigest(salt, password string) []byte {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

func makeSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
