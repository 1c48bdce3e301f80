package orders

import (
	"encoding/json"
	"math"
)

// Money represents currency in minor units (cents) to avoid float issues.
// DB adapters convert to/from NUMERIC(10,2); the JSON boundary speaks dollars.
type Money int64

// NewMoneyFromFloat2 creates Money from float64 dollars, rounding to nearest cent.
func NewMoneyFromFloat2(f float64) Money {
	return Money(math.Round(f * 100.0))
}

func (m Money) ToFloat2() float64 { return float64(m) / 100.0 }

// MarshalJSON renders dollars so API payloads match the storefront contract.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToFloat2())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = NewMoneyFromFloat2(f)
	return nil
}
