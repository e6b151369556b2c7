package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit price to cents, rounding half away from
// zero on the price's shortest decimal representation. Session creation, order
// totals and webhook amount checks all go through here.
func ToMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(hundred).Round(0).IntPart()
}

// FormatMinor renders minor units for humans, e.g. 2000 usd → "$20.00".
func FormatMinor(amount int64, currency string) string {
	v := decimal.New(amount, -2).StringFixed(2)
	if strings.EqualFold(currency, "usd") || currency == "" {
		return "$" + v
	}
	return v + " " + strings.ToUpper(currency)
}
