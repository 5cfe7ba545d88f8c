package auth

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	nameRules = []validation.Rule{
		validation.Required.Error("Name is required"),
	}
	emailRules = []validation.Rule{
		validation.Required.Error("Must be a valid email address"),
		validation.Match(emailPattern).Error("Must be a valid email address"),
	}
	passwordRules = []validation.Rule{
		validation.Required.Error("Password must be at least 6 characters long"),
		validation.Length(minPasswordLength, 0).Error("Password must be at least 6 characters long"),
	}
)

// firstError 按字段顺序返回第一条校验错误
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signupRequest) Validate() error {
	return firstError(
		validateName(r.Name),
		validation.Validate(r.Email, emailRules...),
		validation.Validate(r.Password, passwordRules...),
	)
}

// validateName 姓名去除首尾空白后再校验，纯空白视为缺失
func validateName(name string) error {
	return validation.Validate(strings.TrimSpace(name), nameRules...)
}

type activationRequest struct {
	Token string `json:"token"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r signinRequest) Validate() error {
	return firstError(
		validation.Validate(r.Email, emailRules...),
		validation.Validate(r.Password, passwordRules...),
	)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r forgotPasswordRequest) Validate() error {
	return validation.Validate(r.Email, emailRules...)
}

type resetPasswordRequest struct {
	ResetPasswordLink string `json:"resetPasswordLink"`
	NewPassword       string `json:"newPassword"`
}

func (r resetPasswordRequest) Validate() error {
	return validation.Validate(r.NewPassword, passwordRules...)
}

// updateProfileRequest 字段均可选，nil 表示不修改
type updateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (r updateProfileRequest) Validate() error {
	var errs []error
	if r.Name != nil {
		errs = append(errs, validateName(*r.Name))
	}
	if r.Password != nil {
		errs = append(errs, validation.Validate(*r.Password, passwordRules...))
	}
	return firstError(errs...)
}
