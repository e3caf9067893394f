package auth

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/geocoder89/taskhub/internal/validation"
	"github.com/go-playground/validator/v10"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// PasswordPolicy is the configurable strength rule set for new passwords.
type PasswordPolicy struct {
	MinLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, RequireUpper: true, RequireLower: true, RequireDigit: true}
}

// Violations lists every rule the password breaks, in a fixed order.
func (p PasswordPolicy) Violations(field, password string) []validation.FieldError {
	var out []validation.FieldError

	add := func(rule, param string) {
		out = append(out, validation.FieldError{
			Field:   field,
			Rule:    rule,
			Param:   param,
			Message: validation.Message(rule, param),
		})
	}

	if len([]rune(password)) < p.MinLength {
		add("password_min", strconv.Itoa(p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		add("password_max_bytes", strconv.Itoa(maxPasswordBytes))
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if p.RequireUpper && !upper {
		add("password_upper", "")
	}
	if p.RequireLower && !lower {
		add("password_lower", "")
	}
	if p.RequireDigit && !digit {
		add("password_digit", "")
	}

	return out
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Normalize trims whitespace and lower-cases the email. Password is left untouched.
func (in RegisterInput) Normalize() RegisterInput {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	return in
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type inputValidator struct {
	v      *validator.Validate
	policy PasswordPolicy
}

func newInputValidator(policy PasswordPolicy) *inputValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	if policy.MinLength <= 0 {
		policy = DefaultPasswordPolicy()
	}

	return &inputValidator{v: v, policy: policy}
}

func (iv *inputValidator) register(in RegisterInput) error {
	var fields []validation.FieldError

	if err := iv.v.Struct(in); err != nil {
		fe, ok := validation.FromError(err, &in)
		if !ok {
			return err
		}
		fields = append(fields, fe...)
	}

	if in.Password != "" {
		fields = append(fields, iv.policy.Violations("password", in.Password)...)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (iv *inputValidator) login(in LoginInput) error {
	if err := iv.v.Struct(in); err != nil {
		fe, ok := validation.FromError(err, &in)
		if !ok {
			return err
		}
		return &ValidationError{Fields: fe}
	}
	return nil
}
