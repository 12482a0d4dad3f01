package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"budgettracker/internal/core"
)

// Messages shared by several inputs.
const (
	msgRequired     = "This field is required."
	msgInvalidDate  = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgInvalidMoney = "A valid number is required."
	msgTooManyPlace = "Ensure that there are no more than 2 decimal places."
	msgTooManyDigit = "Ensure that there are no more than 10 digits in total."
)

// ValidationError reports field-level input problems. Fields maps a JSON
// field name to its messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldError builds a ValidationError with a single message.
func FieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

// IsValidationError reports whether err carries field messages.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// checkStruct runs the struct tags of s and adds one message per failed field.
func checkStruct(s any, verr *ValidationError) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("non_field_errors", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}

// parseAmount converts a wire amount, adding a message for field on failure.
// Zero and negative amounts are left to the caller.
func parseAmount(field, raw string, verr *ValidationError) (core.Money, bool) {
	m, err := core.ParseMoney(raw)
	switch {
	case err == nil:
		return m, true
	case errors.Is(err, core.ErrTooManyDecimals):
		verr.Add(field, msgTooManyPlace)
	case errors.Is(err, core.ErrAmountTooLarge):
		verr.Add(field, msgTooManyDigit)
	default:
		verr.Add(field, msgInvalidMoney)
	}
	return core.Money{}, false
}

func parseDate(field, raw string, verr *ValidationError) (core.Date, bool) {
	d, err := core.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		verr.Add(field, msgInvalidDate)
		return core.Date{}, false
	}
	return d, true
}
