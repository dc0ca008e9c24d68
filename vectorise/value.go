package vectorise

import (
	"math"
	"strconv"
	"strings"
)

type ValueKind int

const (
	Absent ValueKind = iota
	Integer
	Float
	Text
)

// Value is a raw field value coerced to its most appropriate type. Text
// holds the lower-cased source text of a present value, trimmed for numbers.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

// IsNumeric reports whether the value carries a number
func (v Value) IsNumeric() bool {
	return v.Kind == Integer || v.Kind == Float
}

// ConvertValue coerces a raw value: empty, "null" and "nan" are absent, then
// integer, then float, then lower-cased text
func ConvertValue(raw string) Value {
	lowered := lower(raw)
	switch lowered {
	case "", "null", "nan":
		return Value{Kind: Absent}
	}

	trimmed := strings.TrimSpace(lowered)
	if isDigits(lowered) {
		if i, err := strconv.ParseInt(lowered, 10, 64); err == nil {
			return Value{Kind: Integer, Number: float64(i), Text: trimmed}
		}
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Value{Kind: Float, Number: f, Text: trimmed}
	}

	return Value{Kind: Text, Text: lowered}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
