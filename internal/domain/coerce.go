package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Percent returns base * rate / 100.
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// Amount converts loosely typed input to a decimal. Blank or non-numeric input is zero.
func Amount(v any) decimal.Decimal {
	d, _ := ParseAmount(v)
	return d
}

// ParseAmount accepts JSON numbers, numeric strings ("1,250.50" included) and Go numeric
// types. ok is false for nil, blank and anything that does not parse.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, false
		}
		return *t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case json.Number:
		return parseDecimalString(t.String())
	case string:
		return parseDecimalString(t)
	}
	return decimal.Zero, false
}

func parseDecimalString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IntFrom reads an integer from float64/int/json.Number/string input; fractions are truncated.
func IntFrom(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		return intFromString(t.String())
	case string:
		return intFromString(t)
	}
	return 0, false
}

func intFromString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
		return int(f), true
	}
	return 0, false
}

// OptionNumberFrom applies the "every hotel belongs to at least option 1" rule.
func OptionNumberFrom(v any) int {
	if n, ok := IntFrom(v); ok && n >= 1 {
		return n
	}
	return 1
}

func stringFrom(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// FlexDecimal decodes any JSON value into a decimal without failing.
// Set is true when the field was present and not null; Valid is true when it held a number.
type FlexDecimal struct {
	decimal.Decimal
	Set   bool
	Valid bool
}

// NewFlexDecimal wraps a known-good value.
func NewFlexDecimal(d decimal.Decimal) FlexDecimal {
	return FlexDecimal{Decimal: d, Set: true, Valid: true}
}

func (f *FlexDecimal) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		*f = FlexDecimal{}
		return nil
	}
	d, ok := ParseAmount(v)
	*f = FlexDecimal{Decimal: d, Set: v != nil, Valid: ok}
	return nil
}

func (f FlexDecimal) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return f.Decimal.MarshalJSON()
}

// decodeLoose decodes b into a generic map keeping numbers as json.Number.
// Valid JSON that is not an object yields an empty map.
func decodeLoose(b []byte) (map[string]any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
