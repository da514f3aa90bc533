package models

import (
	"errors"
	"strings"
)

// ErrOptionValueNotFound is returned when a list choice names an option value that does not exist
var ErrOptionValueNotFound = errors.New("option value not found")

// Translator resolves a message key with interpolation params into a user-facing string
type Translator func(key string, params map[string]interface{}) string

// BaseField marks errors that belong to the record as a whole
const BaseField = "base"

// FieldError is one failed validation rule
type FieldError struct {
	Field       string `json:"field"`
	Key         string `json:"key"`
	Message     string `json:"message"`
	FullMessage string `json:"full_message"`
}

// ValidationErrors collects every rule a record failed. It is returned as an error.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	return strings.Join(e.FullMessages(), "; ")
}

// FullMessages returns the messages prefixed with their attribute name
func (e ValidationErrors) FullMessages() []string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.FullMessage)
	}
	return msgs
}

// On returns the errors recorded for field
func (e ValidationErrors) On(field string) ValidationErrors {
	var out ValidationErrors
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// AsValidationErrors unwraps err into ValidationErrors
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// errorCollector accumulates validation failures using t for messages
type errorCollector struct {
	t    Translator
	errs ValidationErrors
}

func newErrorCollector(t Translator) *errorCollector {
	if t == nil {
		t = func(key string, _ map[string]interface{}) string { return key }
	}
	return &errorCollector{t: t}
}

// attribute records an error on a single attribute, e.g. "Name is too long (...)"
func (c *errorCollector) attribute(field, key string, params map[string]interface{}) {
	msg := c.t(key, params)
	c.errs = append(c.errs, FieldError{
		Field:       field,
		Key:         key,
		Message:     msg,
		FullMessage: c.attributeName(field) + " " + msg,
	})
}

// base records an error on the record as a whole
func (c *errorCollector) base(key string, params map[string]interface{}) {
	c.keyed(BaseField, key, params)
}

// keyed records a complete message under field
func (c *errorCollector) keyed(field, key string, params map[string]interface{}) {
	msg := c.t(key, params)
	c.errs = append(c.errs, FieldError{Field: field, Key: key, Message: msg, FullMessage: msg})
}

func (c *errorCollector) attributeName(field string) string {
	key := "attributes." + field
	if name := c.t(key, nil); name != key && name != "" {
		return name
	}
	return humanize(field)
}

func (c *errorCollector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// NewFieldError builds a single error whose translated message stands on its own
func NewFieldError(t Translator, field, key string, params map[string]interface{}) FieldError {
	c := newErrorCollector(t)
	c.keyed(field, key, params)
	return c.errs[0]
}
