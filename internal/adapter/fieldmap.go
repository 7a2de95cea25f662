package adapter

import (
	"math"
	"strconv"
)

// FieldSpec lists the candidate payload keys for one canonical field, in
// precedence order. Sources renamed fields more than once; every historical
// spelling stays in the table so old payloads keep parsing.
type FieldSpec []string

// String returns the first present candidate coerced to a string.
func (f FieldSpec) String(raw map[string]any) (string, bool) {
	for _, key := range f {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s, true
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(s), true
		}
	}
	return "", false
}

// Number returns the first present candidate coerced to a finite float64.
func (f FieldSpec) Number(raw map[string]any) (float64, bool) {
	for _, key := range f {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if n, ok := coerceNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

// NumberOrZero is Number with 0 for absent or non-finite values. Used for
// presentation-critical fields where a hole would break downstream math.
func (f FieldSpec) NumberOrZero(raw map[string]any) float64 {
	n, _ := f.Number(raw)
	return n
}

// NumberOptional returns nil for absent or non-finite values so optional
// fields stay distinguishable from a genuine zero.
func (f FieldSpec) NumberOptional(raw map[string]any) *float64 {
	if n, ok := f.Number(raw); ok {
		return &n
	}
	return nil
}

// Bool returns the first present candidate coerced to bool.
func (f FieldSpec) Bool(raw map[string]any) (bool, bool) {
	for _, key := range f {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed, true
			}
		case float64:
			return b != 0, true
		}
	}
	return false, false
}

func coerceNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
