package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// =============================================================================
// Missing values
// =============================================================================

// IsMissing reports whether a cell holds the Missing marker.
// nil and NaN floats are both Missing.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case *time.Time:
		return x == nil
	}
	return false
}

// =============================================================================
// Coercion
// =============================================================================

// AsFloat converts a numeric cell to float64.
// Booleans, strings and times are not numbers here; use ParseNumber for text.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case bool, string, time.Time, nil:
		return 0, false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, json.Number:
		f, err := cast.ToFloat64E(x)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ParseNumber parses a text cell as a finite float64.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float64 without trailing zeros, integers without a decimal point.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Stringify renders a cell as text.
// Compound cells (maps, slices) are rendered as canonical JSON so equal structures
// produce equal strings. Missing renders as the empty string.
func Stringify(v any) string {
	if IsMissing(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return FormatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	if f, ok := AsFloat(v); ok {
		return FormatNumber(f)
	}
	return cast.ToString(v)
}

// =============================================================================
// Row keys
// =============================================================================

// RowKey returns a key that is equal for two rows iff their cells are equal.
// Missing equals Missing; compound cells compare by canonical JSON.
func RowKey(row []any) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(cellKey(v))
	}
	return b.String()
}

func cellKey(v any) string {
	if IsMissing(v) {
		return "\x00"
	}
	switch v.(type) {
	case string:
		return "s:" + v.(string)
	case bool:
		return "b:" + Stringify(v)
	case time.Time:
		return "t:" + v.(time.Time).UTC().Format(time.RFC3339Nano)
	case map[string]any, []any:
		return "j:" + Stringify(v)
	}
	if f, ok := AsFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return "s:" + Stringify(v)
}

// =============================================================================
// Type inference
// =============================================================================

// InferType derives a column type from its non-missing cells.
// A column with no non-missing cells is numeric, matching an all-NaN float column.
func InferType(values []any) ColumnType {
	var seen ColumnType
	found := false
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		var kind ColumnType
		switch v.(type) {
		case string:
			kind = TypeText
		case bool:
			kind = TypeBoolean
		case time.Time:
			kind = TypeDatetime
		case map[string]any, []any:
			return TypeMixed
		default:
			if _, ok := AsFloat(v); ok {
				kind = TypeNumeric
			} else {
				return TypeMixed
			}
		}
		if !found {
			seen = kind
			found = true
		} else if seen != kind {
			return TypeMixed
		}
	}
	if !found {
		return TypeNumeric
	}
	return seen
}

// NormalizeCell converts a decoded cell into one of the canonical cell kinds:
// float64, string, bool, time.Time, compound, or nil for Missing.
func NormalizeCell(v any) any {
	if IsMissing(v) {
		return nil
	}
	switch x := v.(type) {
	case string, bool, time.Time, map[string]any, []any:
		return x
	case *time.Time:
		return *x
	case []byte:
		return string(x)
	}
	if f, ok := AsFloat(v); ok {
		return f
	}
	return cast.ToString(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
