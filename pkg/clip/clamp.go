package clip

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// ClampMaxItems converts a requested retention limit into a usable one.
// Numbers and numeric strings are truncated toward zero and clamped to
// [MinMaxItems, MaxMaxItems]. Anything that is not a finite number falls back
// to DefaultMaxItems.
func ClampMaxItems(requested any) int {
	n, ok := toNumber(requested)
	if !ok {
		return DefaultMaxItems
	}

	return int(lo.Clamp(math.Trunc(n), MinMaxItems, MaxMaxItems))
}

// toNumber coerces v into a finite float64.
func toNumber(v any) (float64, bool) {
	var f float64

	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.RawMessage:
		return rawNumber(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// rawNumber decodes an undecoded JSON value that is either a number or a
// numeric string.
func rawNumber(raw json.RawMessage) (float64, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, false
	}

	return toNumber(decoded)
}

// EffectiveMaxItems is the limit applied when recording a capture. An unset
// limit behaves like the default and the result stays within
// [MinMaxItems, MaxMaxItems].
func EffectiveMaxItems(s Settings) int {
	if s.MaxItems == 0 {
		return DefaultMaxItems
	}

	return ClampMaxItems(s.MaxItems)
}
