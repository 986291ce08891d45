// File: internal/config/validation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// greeting: a single-line positive completion reply.
		_ = validate.RegisterValidation("greeting", func(fl validator.FieldLevel) bool {
			g := strings.TrimSuffix(fl.Field().String(), "\r\n")
			return strings.HasPrefix(g, "220") && !strings.ContainsAny(g, "\r\n")
		})
		// username: printable, no whitespace, as sent after USER.
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			for _, r := range fl.Field().String() {
				if r <= ' ' || r == 0x7f {
					return false
				}
			}
			return true
		})
		_ = validate.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
			_, err := bcrypt.Cost([]byte(fl.Field().String()))
			return err == nil
		})
	})
	return validate
}

// Validate checks cfg against its struct tags and returns one error listing
// every offending field.
func Validate(cfg *Config) error {
	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ipv4":
		return fmt.Sprintf("%s must be a dotted-decimal IPv4 address, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "greeting":
		return fmt.Sprintf("%s must be a single 220 reply line", field)
	case "username":
		return fmt.Sprintf("%s must not contain whitespace or control characters", field)
	case "bcrypt":
		return fmt.Sprintf("%s is not a bcrypt hash", field)
	case "unique":
		return fmt.Sprintf("%s contains duplicate %s values", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
