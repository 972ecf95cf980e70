package validation

import "strings"

// Accessors below read values that already passed validation. They return
// zero values for fields that are absent or of the wrong type.

// Has reports whether the field is present and not blank.
func (b Body) Has(name string) bool {
	return !isBlank(b[name])
}

// String returns the trimmed string value of name.
func (b Body) String(name string) string {
	s, _ := b[name].(string)
	return strings.TrimSpace(s)
}

// OptionalString returns the trimmed value of name, or nil when it is blank.
func (b Body) OptionalString(name string) *string {
	if !b.Has(name) {
		return nil
	}
	s := b.String(name)
	return &s
}

// Int64 returns the integer value of name.
func (b Body) Int64(name string) int64 {
	n, _ := toInt(b[name])
	return n
}

// OptionalInt64 returns the integer value of name, or nil when it is blank.
func (b Body) OptionalInt64(name string) *int64 {
	if !b.Has(name) {
		return nil
	}
	n, ok := toInt(b[name])
	if !ok {
		return nil
	}
	return &n
}

// Bool returns the boolean value of name.
func (b Body) Bool(name string) bool {
	v, _ := toBool(b[name])
	return v
}

// AsBody converts a nested JSON object, such as an array element, into a Body.
func AsBody(v any) (Body, bool) {
	obj, ok := v.(map[string]any)
	return Body(obj), ok
}

// List returns the array under name.
func (b Body) List(name string) []any {
	items, _ := b[name].([]any)
	return items
}
