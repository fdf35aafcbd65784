package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/immo-dpe/dpe-search/internal/model"
)

// ParseFloat converts a loosely typed JSON value to a float. Strings may use
// a decimal comma and surrounding spaces. It returns nil for nil, empty,
// non-numeric, NaN or infinite input.
func ParseFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		return parseFloatString(x.String())
	case string:
		return parseFloatString(x)
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseFloatString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseInt is ParseFloat truncated toward zero.
func ParseInt(v any) *int {
	f := ParseFloat(v)
	if f == nil || *f > math.MaxInt32 || *f < math.MinInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

// ParseClass upper-cases v and returns it when it is a valid A..G rating,
// otherwise "".
func ParseClass(v any) model.Class {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	c := model.Class(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return ""
	}
	return c
}

// Text renders scalar JSON values as trimmed strings. Objects, arrays and nil
// become "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// PostalCode renders v as a French postal code. Numeric values lose their
// leading zero upstream ("1000" for Bourg-en-Bresse), so four-digit codes are
// left-padded back to five.
func PostalCode(v any) string {
	s := strings.ReplaceAll(Text(v), " ", "")
	if len(s) == 4 && isDigits(s) {
		return "0" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// parseGeoPoint splits a "lat,lon" string.
func parseGeoPoint(v any) (lat, lon *float64) {
	s, ok := v.(string)
	if !ok {
		if arr, ok := v.([]any); ok && len(arr) == 2 {
			return ParseFloat(arr[0]), ParseFloat(arr[1])
		}
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, nil
	}
	return parseFloatString(parts[0]), parseFloatString(parts[1])
}
