package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"catalog/internal/rbac/apperrors"
)

// isoMillis is the normalized timestamp layout stored for date fields.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ValidateFields checks data against the declared fields and coerces values in place.
// Every problem is reported; an empty result means data is valid.
func ValidateFields(fields []FieldDefinition, data map[string]any) []apperrors.FieldError {
	var errs []apperrors.FieldError

	for _, f := range fields {
		value, present := data[f.Name]

		if f.Required && isMissing(f.Type, value, present) {
			errs = append(errs, apperrors.FieldError{Field: f.Name, Message: f.Name + " is required."})
			continue
		}
		if !present || value == nil {
			continue
		}

		coerced, msg := coerce(f.Type, value)
		if msg != "" {
			errs = append(errs, apperrors.FieldError{Field: f.Name, Message: f.Name + " " + msg})
			continue
		}
		data[f.Name] = coerced
	}

	return errs
}

func isMissing(fieldType string, value any, present bool) bool {
	if fieldType == FieldTypeBoolean {
		_, ok := value.(bool)
		return !ok
	}
	if !present || value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return true
	}
	return false
}

func coerce(fieldType string, value any) (any, string) {
	switch fieldType {
	case FieldTypeString:
		return stringify(value), ""
	case FieldTypeNumber:
		n, ok := toNumber(value)
		if !ok {
			return nil, "must be a valid number."
		}
		return n, ""
	case FieldTypeBoolean:
		b, ok := toBool(value)
		if !ok {
			return nil, "must be a boolean."
		}
		return b, ""
	case FieldTypeDate:
		t, ok := toTime(value)
		if !ok {
			return nil, "must be a valid date."
		}
		return t.UTC().Format(isoMillis), ""
	default:
		return value, ""
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(isoMillis)
	default:
		return fmt.Sprint(v)
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	case float64:
		switch v {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case int:
		switch v {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case float64:
		// epoch milliseconds
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
