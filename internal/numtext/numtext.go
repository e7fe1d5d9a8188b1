// Package numtext parses numbers typed into free-text form fields.
//
// Parsing is lenient in the way form inputs are: a leading numeric prefix is
// accepted ("12abc" is 12) and anything without one is treated as absent.
package numtext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	decimalPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix     = regexp.MustCompile(`^[+-]?\d+`)
)

// Decimal returns the leading decimal number in raw, or ok=false when there is none.
func Decimal(raw string) (decimal.Decimal, bool) {
	match := decimalPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// DecimalOrZero is Decimal with absent input treated as zero.
func DecimalOrZero(raw string) decimal.Decimal {
	d, _ := Decimal(raw)
	return d
}

// Int returns the leading integer in raw, or ok=false when there is none.
func Int(raw string) (int, bool) {
	match := intPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

func IntOrZero(raw string) int {
	n, _ := Int(raw)
	return n
}

// Rate parses a GST rate. Blank input yields an invalid (absent) rate.
func Rate(raw string) decimal.NullDecimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(DecimalOrZero(trimmed))
}

// FormatRate renders a rate back to text, blank when absent.
func FormatRate(rate decimal.NullDecimal) string {
	if !rate.Valid {
		return ""
	}
	return rate.Decimal.String()
}

// Money renders an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
