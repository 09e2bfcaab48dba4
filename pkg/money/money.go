// pkg/money/money.go

// Package money converts between Checkout minor units and display amounts.
package money

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies whose minor unit is not 1/100, as listed in Checkout's
// "calculating the amount" table.
var exponents = map[string]int32{
	"BIF": 0, "CLF": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VUV": 0, "VND": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

func Exponent(currency string) int32 {
	if e, ok := exponents[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// FormatMinor renders an amount in minor units as "12.34 USD".
func FormatMinor(amount int64, currency string) string {
	cur := strings.ToUpper(currency)
	exp := Exponent(cur)
	return fmt.Sprintf("%s %s", decimal.New(amount, -exp).StringFixed(exp), cur)
}

// minorDigits bounds the input before any numeric work: 2^53-1 has 16 digits.
var minorDigits = regexp.MustCompile(`^[0-9]{1,16}$`)

// ParseMinor parses a strictly positive integer amount in minor units. Only
// plain digits are accepted; signs, decimals and exponents are rejected.
func ParseMinor(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !minorDigits.MatchString(raw) {
		return 0, fmt.Errorf("amount %q must be a positive integer in minor units", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	if v > maxAmount {
		return 0, fmt.Errorf("amount %q is too large", raw)
	}
	return v, nil
}

const maxAmount = 1<<53 - 1
