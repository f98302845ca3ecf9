package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/schema"
)

// coerceValue converts a submitted form value for a column of type t.
// Integers that fail to parse or overflow the column width become 0 rather
// than failing the submission.
// Empty input for integer, date and numeric columns is stored as NULL.
func coerceValue(t schema.ColumnType, raw any) any {
	switch t.Kind {
	case schema.KindInteger:
		if isBlank(raw) {
			return nil
		}
		return coerceInteger(raw, t.Bits)
	case schema.KindBoolean:
		return truthy(raw)
	case schema.KindText:
		return textOf(raw)
	default:
		if isBlank(raw) {
			return nil
		}
		return textOf(raw)
	}
}

// coerceInteger returns 0 for input that does not parse or does not fit in a
// signed integer of the given width.
func coerceInteger(raw any, bits int) int64 {
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	switch v := raw.(type) {
	case float64:
		return floatToInteger(v, bits)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInteger(n, bits)
		}
		if f, err := v.Float64(); err == nil {
			return floatToInteger(f, bits)
		}
		return 0
	case int:
		return clampInteger(int64(v), bits)
	case int64:
		return clampInteger(v, bits)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, bits)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func floatToInteger(v float64, bits int) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	// bounds are exact powers of two, so the comparison holds at 64 bits too
	limit := math.Ldexp(1, bits-1)
	if v < -limit || v >= limit {
		return 0
	}
	return int64(v)
}

func clampInteger(n int64, bits int) int64 {
	if bits >= 64 {
		return n
	}
	limit := int64(1) << (bits - 1)
	if n < -limit || n >= limit {
		return 0
	}
	return n
}

// truthy treats recognised false spellings ("false", "0", "f") as false and
// any other non-empty string as true.
func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false
		}
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return true
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func textOf(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}
