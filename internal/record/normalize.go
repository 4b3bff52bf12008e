package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Scores holds the four normalized domain values and their derived total.
type Scores struct {
	Understanding float64
	Application   float64
	Communication float64
	Behavior      float64
	Total         float64
}

// Normalize converts one raw record-like mapping into fully-defined scores.
// It is total over arbitrary input: every missing, null, or non-numeric
// field becomes 0.0, and any total supplied by the caller is ignored. The
// returned Total is the sum of the four values rounded to 2 decimals, half
// away from zero.
func Normalize(raw map[string]interface{}) Scores {
	u := coerceFloat(raw["understanding"])
	a := coerceFloat(raw["application"])
	c := coerceFloat(raw["communication"])
	b := coerceFloat(raw["behavior"])
	return Scores{
		Understanding: u,
		Application:   a,
		Communication: c,
		Behavior:      b,
		Total:         Round2(u + a + c + b),
	}
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TotalOf recomputes the canonical total for four domain scores.
func TotalOf(u, a, c, b float64) float64 {
	return Round2(u + a + c + b)
}

func coerceFloat(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
