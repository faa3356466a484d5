// Package validate collects per-field rule violations for decoded request
// payloads and turns them into a single Validation error.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"backoffice.app/internal/apperr"
)

// FieldError lists every violated rule of one field. Nested objects report
// their own violations under Children.
type FieldError struct {
	Field    string       `json:"field"`
	Errors   []string     `json:"errors"`
	Children []FieldError `json:"children,omitempty"`
}

// Rule checks a single string value and returns a message when it is violated.
type Rule func(field, value string) (string, bool)

// Validatable is implemented by request payloads.
type Validatable interface {
	Validate(v *Validator)
}

// Validator accumulates field errors in declaration order.
type Validator struct {
	errs  []FieldError
	index map[string]int
}

func New() *Validator {
	return &Validator{index: make(map[string]int)}
}

// Check runs payload.Validate and returns the aggregated error, if any.
func Check(payload Validatable) error {
	v := New()
	payload.Validate(v)
	return v.Err()
}

// String applies rules to a required value.
func (v *Validator) String(field, value string, rules ...Rule) {
	for _, rule := range rules {
		if msg, ok := rule(field, value); !ok {
			v.Add(field, msg)
		}
	}
}

// Optional applies rules only when value is present.
func (v *Validator) Optional(field string, value *string, rules ...Rule) {
	if value == nil {
		return
	}
	v.String(field, *value, rules...)
}

// Nested validates a child object and records its violations as one group.
func (v *Validator) Nested(field string, fn func(*Validator)) {
	child := New()
	fn(child)
	if len(child.errs) == 0 {
		return
	}
	fe := v.entry(field)
	fe.Children = append(fe.Children, child.errs...)
}

// Add records a violation for field.
func (v *Validator) Add(field, msg string) {
	fe := v.entry(field)
	fe.Errors = append(fe.Errors, msg)
}

func (v *Validator) entry(field string) *FieldError {
	if v.index == nil {
		v.index = make(map[string]int)
	}
	if i, ok := v.index[field]; ok {
		return &v.errs[i]
	}
	v.errs = append(v.errs, FieldError{Field: field, Errors: []string{}})
	v.index[field] = len(v.errs) - 1
	return &v.errs[len(v.errs)-1]
}

// Errors returns the collected violations.
func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Err returns a Validation error listing every violation, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.Validation("Validation failed", v.errs)
}

// Required rejects empty and whitespace-only values.
func Required() Rule {
	return func(field, value string) (string, bool) {
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s should not be empty", field), false
		}
		return "", true
	}
}

func MinLength(n int) Rule {
	return func(field, value string) (string, bool) {
		if !govalidator.StringLength(value, strconv.Itoa(n), strconv.Itoa(maxInt)) {
			return fmt.Sprintf("%s must be longer than or equal to %d characters", field, n), false
		}
		return "", true
	}
}

func MaxLength(n int) Rule {
	return func(field, value string) (string, bool) {
		if !govalidator.StringLength(value, "0", strconv.Itoa(n)) {
			return fmt.Sprintf("%s must be shorter than or equal to %d characters", field, n), false
		}
		return "", true
	}
}

func Email() Rule {
	return func(field, value string) (string, bool) {
		if !govalidator.IsEmail(strings.TrimSpace(value)) {
			return fmt.Sprintf("%s must be an email", field), false
		}
		return "", true
	}
}

func URL() Rule {
	return func(field, value string) (string, bool) {
		if !govalidator.IsURL(value) {
			return fmt.Sprintf("%s must be a URL address", field), false
		}
		return "", true
	}
}

// OneOf compares case-insensitively after trimming.
func OneOf(values ...string) Rule {
	return func(field, value string) (string, bool) {
		candidate := strings.ToUpper(strings.TrimSpace(value))
		upper := make([]string, len(values))
		for i, val := range values {
			upper[i] = strings.ToUpper(val)
		}
		if !govalidator.IsIn(candidate, upper...) {
			return fmt.Sprintf("%s must be one of the following values: %s", field, strings.Join(values, ", ")), false
		}
		return "", true
	}
}

// Base64OrDataURI accepts raw base64 or a data URI carrying base64 content.
func Base64OrDataURI() Rule {
	return func(field, value string) (string, bool) {
		if govalidator.IsBase64(value) || govalidator.IsDataURI(value) {
			return "", true
		}
		return fmt.Sprintf("%s must be base64 encoded", field), false
	}
}

const maxInt = int(^uint(0) >> 1)
