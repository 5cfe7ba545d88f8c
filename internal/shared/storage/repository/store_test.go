// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 UserStore 实现的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"testing"

	"auth-server/internal/shared/model"
	"auth-server/internal/shared/storage"
	"auth-server/internal/shared/storage/dbutil"
	sqlitedriver "auth-server/internal/shared/storage/driver/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(dbutil.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", d.Rebind("SELECT * FROM users WHERE id = $1"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(dbutil.DriverMongoDB, "mongodb://localhost")
	assert.Error(t, err)
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := model.NewUser("Alice", "Alice@Example.com", "secret1")
	require.NoError(t, s.CreateUser(ctx, user))
	assert.Empty(t, user.Password)

	got, err := s.GetUserByEmail(ctx, "alice@EXAMPLE.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, model.UserRoleUser, got.Role)
	assert.True(t, got.Authenticate("secret1"))

	got, err = s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = s.GetUserByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, model.NewUser("A", "a@x.com", "pw1pw1")))
	err := s.CreateUser(ctx, model.NewUser("A", "a@x.com", "pw1pw1"))
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestCreateUser_RequiresPassword(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateUser(context.Background(), model.NewUser("A", "a@x.com", ""))
	assert.ErrorIs(t, err, model.ErrEmptyPassword)
}

func TestResetLinkLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := model.NewUser("Bob", "bob@example.com", "secret1")
	require.NoError(t, s.CreateUser(ctx, user))

	require.NoError(t, s.SetResetPasswordLink(ctx, user.ID, "link-1"))
	assert.ErrorIs(t, s.SetResetPasswordLink(ctx, "missing", "x"), storage.ErrNotFound)

	// 轮换：第二次写入覆盖第一次
	require.NoError(t, s.SetResetPasswordLink(ctx, user.ID, "link-2"))
	old, err := s.GetUserByResetLink(ctx, "link-1")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := s.GetUserByResetLink(ctx, "link-2")
	require.NoError(t, err)
	require.NotNil(t, got)

	got.Password = "newpass1"
	got.ResetPasswordLink = ""
	require.NoError(t, s.SaveUser(ctx, got))

	cleared, err := s.GetUserByResetLink(ctx, "link-2")
	require.NoError(t, err)
	assert.Nil(t, cleared)

	reloaded, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Authenticate("newpass1"))
	assert.False(t, reloaded.Authenticate("secret1"))

	empty, err := s.GetUserByResetLink(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSaveUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	u := &model.User{ID: "ghost", HashedPassword: "x", Role: model.UserRoleUser}
	assert.ErrorIs(t, s.SaveUser(context.Background(), u), storage.ErrNotFound)
}
