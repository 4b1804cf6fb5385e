package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency-tagged amount. All arithmetic stays in decimal;
// binary floats never enter threshold comparisons.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// minorUnits lists the exceptions to the two-decimal default.
var minorUnits = map[string]int32{
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"JPY": 0,
	"KRW": 0,
	"KWD": 3,
	"MMK": 0,
	"OMR": 3,
	"VND": 0,
}

// MinorUnitExponent returns the number of decimal places the currency carries.
func MinorUnitExponent(currency string) int32 {
	if exp, ok := minorUnits[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// OneMinorUnit returns the smallest representable step of the currency,
// e.g. 0.01 for USD, 1 for JPY. Used as the default rounding tolerance.
func OneMinorUnit(currency string) decimal.Decimal {
	return decimal.New(1, -MinorUnitExponent(currency))
}

func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Round snaps the amount to the currency's minor-unit precision.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(MinorUnitExponent(m.Currency)), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(MinorUnitExponent(m.Currency)), m.Currency)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}
