package domain

import (
	"fmt"
	"math"
)

// Money is an amount in cents. All price arithmetic stays in integer cents so
// totals are exact; floats only appear at the configuration edge.
type Money int64

func Cents(n int64) Money { return Money(n) }

// MoneyFromFloat converts a currency amount (e.g. a rate column read as REAL)
// to cents, rounding half-up at the second decimal. The epsilon keeps values
// like 1.005, which binary floats store just below the half cent, rounding up.
func MoneyFromFloat(f float64) Money {
	if f < 0 {
		return -MoneyFromFloat(-f)
	}
	return Money(math.Floor(f*100 + 0.5 + 1e-9))
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) Mul(n int) Money { return m * Money(n) }

func (m Money) Add(o Money) Money { return m + o }

// String renders with exactly two decimals, e.g. "435.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}
