package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports caller-supplied data that violates a precondition.
// It is always returned before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// DuplicateIdentityError reports an email that is already registered.
type DuplicateIdentityError struct {
	Email string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("email %q is already registered", e.Email)
}

// NotFoundError reports a lookup of a nonexistent entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// RemoteWriteError wraps a backend write failure with the step that failed.
type RemoteWriteError struct {
	Step string
	Err  error
}

func (e *RemoteWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *RemoteWriteError) Unwrap() error { return e.Err }

// RemoteReadError wraps a backend read failure with the step that failed.
type RemoteReadError struct {
	Step string
	Err  error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *RemoteReadError) Unwrap() error { return e.Err }

// AuthError wraps an auth provider failure during sign-in, sign-out, or refresh.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs struct tag validation and converts the first failure
// into a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := ve[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			msg = "must contain at least " + fe.Param() + " item(s)"
		} else {
			msg = "must be at least " + fe.Param() + " characters"
		}
	case "oneof":
		msg = "must be one of: " + fe.Param()
	default:
		msg = "is invalid"
	}
	return &ValidationError{Field: field, Message: msg}
}
