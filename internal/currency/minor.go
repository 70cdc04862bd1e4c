// Package currency handles integer minor-unit amounts (cents) so statement
// arithmetic never touches floating point.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimal lists currencies whose minor unit equals the major unit.
var zeroDecimal = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
	"clp": true,
}

var symbols = map[string]string{
	"usd": "$",
	"hkd": "HK$",
	"eur": "€",
	"gbp": "£",
	"jpy": "¥",
}

// ParseMinor converts a display amount string ("1,234.56", "$99.00", "-4.20")
// to signed integer minor units. Fractions beyond the minor unit are
// truncated, matching the source system's import behavior.
func ParseMinor(s string) (int64, error) {
	cleaned := cleanAmount(s)
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("empty amount %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// FormatMinor renders minor units as a display string in the given currency.
func FormatMinor(amount int64, code string) string {
	code = strings.ToLower(code)
	sym, ok := symbols[code]
	if !ok {
		sym = strings.ToUpper(code) + " "
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	if zeroDecimal[code] {
		return fmt.Sprintf("%s%s%d", sign, sym, amount/100)
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, sym, amount/100, amount%100)
}

// Abs returns the absolute value of a minor-unit amount.
func Abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// cleanAmount strips currency symbols, thousands separators, and whitespace,
// keeping digits, the sign, and the decimal point.
func cleanAmount(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == '(':
			// Accounting negatives: (12.34) means -12.34.
			b.WriteRune('-')
		}
	}
	return b.String()
}
