// Package validation evaluates declarative per-field rules against a decoded
// JSON request body. Rules are pure: they never perform I/O.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Body is a decoded JSON object keyed by field name.
type Body map[string]any

// FieldError names a field that failed a rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Rule is a predicate over a raw field value plus the message reported when it fails.
type Rule struct {
	Check   func(value any) bool
	Message string
}

// FieldRules is the ordered rule chain for one field.
type FieldRules struct {
	name     string
	optional bool
	rules    []Rule
}

// Field declares the rule chain for name. Rules run in order and stop at the first failure.
func Field(name string, rules ...Rule) FieldRules {
	return FieldRules{name: name, rules: rules}
}

// Optional skips every rule when the field is absent, null or an empty string.
func (f FieldRules) Optional() FieldRules {
	f.optional = true
	return f
}

// Name returns the field name.
func (f FieldRules) Name() string {
	return f.name
}

// Validate runs every field chain and accumulates one error per failing field.
// It returns nil when the body satisfies all rules.
func Validate(body Body, fields ...FieldRules) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		value := body[f.name]
		if f.optional && isBlank(value) {
			continue
		}
		for _, rule := range f.rules {
			if rule.Check(value) {
				continue
			}
			errs = append(errs, FieldError{Field: f.name, Message: rule.Message})
			break
		}
	}
	return errs
}

// Decode reads a single JSON object from r. Numbers are kept as json.Number
// so that integer rules can reject fractional values. Anything after the
// object other than whitespace is an error.
func Decode(r io.Reader) (Body, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Body{}, nil
		}
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode body: unexpected data after JSON value")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("decode body: expected a JSON object")
	}
	return Body(obj), nil
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
