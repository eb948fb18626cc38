package core

import (
	"encoding/json"
	"math"
)

// Money is an amount in cents. It serializes as a bare integer so backup
// documents stay compact and lossless.
type Money struct {
	Cents int64
}

func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

// Percent returns rate% of m, rounded half away from zero.
func (m Money) Percent(rate float64) Money {
	return Money{Cents: int64(math.Round(float64(m.Cents) * rate / 100))}
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsPositive() bool {
	return m.Cents > 0
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.Cents)
}
