package roster

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// ValidateFieldValue checks a single value against a field definition.
//
// The first violated rule wins: required, then the type check, then the type's
// constraints in declaration order. Empty optional values are valid without any
// type check.
func ValidateFieldValue(field FieldDefinition, value Value) FieldResult {
	if value.IsEmpty() {
		if field.Required {
			return invalid("%s is required.", field.Label)
		}
		return FieldResult{IsValid: true}
	}

	switch field.Type {
	case FieldTypeText:
		return validateText(field, value)
	case FieldTypeNumber:
		return validateNumber(field, value)
	case FieldTypeDate:
		return validateDate(field, value)
	case FieldTypeSelect:
		if !slices.Contains(field.Options, value.String()) {
			return invalid("%s must be one of the available options.", field.Label)
		}
	case FieldTypeCheckbox:
		if value.Kind() != ValueBool {
			return invalid("%s must be a checkbox value.", field.Label)
		}
	}

	return FieldResult{IsValid: true}
}

func validateText(field FieldDefinition, value Value) FieldResult {
	s, ok := value.StringValue()
	if !ok {
		return invalid("%s must be a string.", field.Label)
	}

	c := field.Constraints
	if c == nil {
		return FieldResult{IsValid: true}
	}

	length := utf8.RuneCountInString(s)
	if c.MinLength != nil && length < *c.MinLength {
		return invalid("%s must be at least %d characters.", field.Label, *c.MinLength)
	}
	if c.MaxLength != nil && length > *c.MaxLength {
		return invalid("%s exceeds the max length of %d characters.", field.Label, *c.MaxLength)
	}
	if c.Pattern != "" {
		re, err := compilePattern(c.Pattern)
		if err != nil || !re.MatchString(s) {
			return invalid("%s format is invalid.", field.Label)
		}
	}
	return FieldResult{IsValid: true}
}

func validateNumber(field FieldDefinition, value Value) FieldResult {
	n := coerceNumber(value)
	if math.IsNaN(n) {
		return invalid("%s must be a number.", field.Label)
	}

	c := field.Constraints
	if c == nil {
		return FieldResult{IsValid: true}
	}
	if c.Min != nil && n < *c.Min {
		return invalid("%s must be at least %s.", field.Label, formatNumber(*c.Min))
	}
	if c.Max != nil && n > *c.Max {
		return invalid("%s must be at most %s.", field.Label, formatNumber(*c.Max))
	}
	return FieldResult{IsValid: true}
}

func validateDate(field FieldDefinition, value Value) FieldResult {
	s, ok := value.StringValue()
	if !ok {
		return invalid("%s must be a valid date.", field.Label)
	}
	d, ok := ParseDate(s)
	if !ok {
		return invalid("%s must be a valid date.", field.Label)
	}

	c := field.Constraints
	if c == nil {
		return FieldResult{IsValid: true}
	}
	if minDate, ok := ParseDate(c.MinDate); ok && d.Before(minDate) {
		return invalid("%s must be on or after %s.", field.Label, minDate.Format(dateLayout))
	}
	if maxDate, ok := ParseDate(c.MaxDate); ok && d.After(maxDate) {
		return invalid("%s must be on or before %s.", field.Label, maxDate.Format(dateLayout))
	}
	return FieldResult{IsValid: true}
}

// ValidateRecord validates every schema field against the record, in schema order.
// Keys the schema does not define are never checked.
func ValidateRecord(record Record, fields []FieldDefinition) ValidationResult {
	errs := make([]ValidationError, 0)
	for _, field := range fields {
		res := ValidateFieldValue(field, record.Get(field.ID))
		if !res.IsValid && res.Error != "" {
			errs = append(errs, ValidationError{FieldID: field.ID, Message: res.Error})
		}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateRecords validates a batch. Field ids are namespaced as "<index>.<fieldId>" and
// messages are prefixed with the 1-based record ordinal.
func ValidateRecords(records []Record, fields []FieldDefinition) ValidationResult {
	errs := make([]ValidationError, 0)
	for i, record := range records {
		res := ValidateRecord(record, fields)
		for _, e := range res.Errors {
			errs = append(errs, ValidationError{
				FieldID: fmt.Sprintf("%d.%s", i, e.FieldID),
				Message: fmt.Sprintf("Record #%d: %s", i+1, e.Message),
			})
		}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ParseDate parses a calendar date. YYYY-MM-DD is canonical; RFC 3339 timestamps are
// accepted and truncated to their own calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// coerceNumber mirrors loose numeric conversion: numbers as-is, numeric strings parsed,
// booleans as 1/0. Anything else, including whitespace-only strings, is NaN.
func coerceNumber(v Value) float64 {
	switch v.Kind() {
	case ValueNumber:
		n, _ := v.NumberValue()
		return n
	case ValueBool:
		if b, _ := v.BoolValue(); b {
			return 1
		}
		return 0
	case ValueText, ValueDate:
		s, _ := v.StringValue()
		s = strings.TrimSpace(s)
		if s == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

var patternCache sync.Map // pattern -> *regexp.Regexp

// compilePattern anchors the pattern so that it must match the whole value.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

func invalid(format string, args ...any) FieldResult {
	return FieldResult{IsValid: false, Error: fmt.Sprintf(format, args...)}
}
