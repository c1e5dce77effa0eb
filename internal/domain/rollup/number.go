package rollup

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Number is a metric value. Anything that does not parse as a finite number reads as 0.
type Number float64

func (n Number) Float() float64 {
	return float64(n)
}

// ParseNumber coerces an arbitrary value, returning 0 when it cannot be read as a finite number.
func ParseNumber(v any) Number {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Number(f)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*n = 0
		return nil
	}
	if _, isBool := raw.(bool); isBool {
		*n = 0
		return nil
	}
	*n = ParseNumber(raw)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return json.Marshal(f)
}
