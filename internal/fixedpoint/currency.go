package fixedpoint

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a tick-scaled monetary value, always paired with a currency via
// CurrencyAmount. It uses the same scale and overflow rules as Price/Quantity.
type Amount int64

// AmountFromDecimal truncates d toward zero at the tick scale.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount(truncateToTicks(d))
}

// ToDecimal returns the exact decimal equivalent of a.
func (a Amount) ToDecimal() decimal.Decimal {
	return decimal.New(int64(a), 0).Div(decimalScale)
}

func (a Amount) Add(o Amount) Amount {
	r := a + o
	if (o > 0 && r < a) || (o < 0 && r > a) {
		panic(fmt.Sprintf("fixedpoint: Amount overflow: %d + %d", a, o))
	}
	return r
}

func (a Amount) Sub(o Amount) Amount { return a.Add(-o) }
func (a Amount) Neg() Amount         { return -a }
func (a Amount) IsZero() bool        { return a == 0 }
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

func (a Amount) Sign() int {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	default:
		return 0
	}
}

func (a Amount) String() string { return a.ToDecimal().String() }

// CurrencyAmount is a monetary value denominated in a specific currency.
type CurrencyAmount struct {
	Value    Amount
	Currency string
}

func NewCurrencyAmount(v Amount, ccy string) CurrencyAmount {
	return CurrencyAmount{Value: v, Currency: ccy}
}

func (c CurrencyAmount) Add(o CurrencyAmount) (CurrencyAmount, error) {
	if c.Currency != o.Currency {
		return CurrencyAmount{}, fmt.Errorf("fixedpoint: currency mismatch: %s vs %s", c.Currency, o.Currency)
	}
	return CurrencyAmount{Value: c.Value.Add(o.Value), Currency: c.Currency}, nil
}

func (c CurrencyAmount) Neg() CurrencyAmount {
	return CurrencyAmount{Value: c.Value.Neg(), Currency: c.Currency}
}

func (c CurrencyAmount) String() string {
	return fmt.Sprintf("%s %s", c.Value.ToDecimal().String(), c.Currency)
}
