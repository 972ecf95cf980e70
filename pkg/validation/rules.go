package validation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"booktracker/pkg/domain"
)

// MsgNotEmpty is reported by Required.
const MsgNotEmpty = "This field cannot be empty"

var (
	dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTag   = "datetime=" + domain.DateLayout

	// tags checks single values against validator tags.
	tags = validator.New()
)

// Required rejects absent and null values and strings that are empty after trimming.
func Required(msg string) Rule {
	if msg == "" {
		msg = MsgNotEmpty
	}
	return Rule{Message: msg, Check: func(v any) bool {
		return !isBlank(v)
	}}
}

// IsString rejects non-string values.
func IsString(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
}

// Length bounds the trimmed rune count of a string, inclusive.
func Length(min, max int, msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		n := utf8.RuneCountInString(strings.TrimSpace(s))
		return n >= min && n <= max
	}}
}

// MaxLength caps the trimmed rune count of a string.
func MaxLength(max int, msg string) Rule {
	return Length(0, max, msg)
}

// ExactLength requires the untrimmed string to have exactly n runes.
func ExactLength(n int, msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && utf8.RuneCountInString(s) == n
	}}
}

// PositiveInt accepts integers greater than zero, as JSON numbers or numeric strings.
func PositiveInt(msg string) Rule {
	return IntBetween(1, math.MaxInt64, msg)
}

// IntBetween accepts integers within [min, max].
func IntBetween(min, max int64, msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		n, ok := toInt(v)
		return ok && n >= min && n <= max
	}}
}

// OneOf accepts a trimmed string equal to one of values.
func OneOf(msg string, values ...string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		s = strings.TrimSpace(s)
		for _, allowed := range values {
			if s == allowed {
				return true
			}
		}
		return false
	}}
}

// Date requires the YYYY-MM-DD shape and a real calendar date.
func Date(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		s = strings.TrimSpace(s)
		return dateShape.MatchString(s) && tags.Var(s, dateTag) == nil
	}}
}

// Email requires a bare address such as "name@example.com".
func Email(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		return tags.Var(strings.TrimSpace(s), "required,email") == nil
	}}
}

// Boolean accepts JSON booleans and the strings "true", "false", "1" and "0".
func Boolean(msg string) Rule {
	return Rule{Message: msg, Check: func(v any) bool {
		_, ok := toBool(v)
		return ok
	}}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	case json.Number:
		switch b.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}
