package domain

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether mail has a local part, an @ and a dotted domain
// without any whitespace.
func IsValidEmail(mail string) bool {
	return emailPattern.MatchString(mail)
}

// NormalizeEmail returns the comparison form of an email address
func NormalizeEmail(mail string) string {
	return strings.ToLower(mail)
}

// NewValidator returns a validator with the record store's custom tags registered
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("leademail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}
