// Package core holds the expense ledger domain model.
//
// This file contains the single currency formatter shared by chat summaries
// and generated reports, plus its inverse.
package core

import (
	"strconv"
	"strings"
)

// CurrencyPrefix is prepended to every displayed amount.
const CurrencyPrefix = "Rp "

// FormatRupiah renders an integer amount with "." thousands grouping.
//
// Examples:
//
//	FormatRupiah(25000)   -> "Rp 25.000"
//	FormatRupiah(1500000) -> "Rp 1.500.000"
//	FormatRupiah(-750)    -> "Rp -750"
func FormatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var b strings.Builder
	b.Grow(len(CurrencyPrefix) + len(digits) + len(digits)/3 + 1)
	b.WriteString(CurrencyPrefix)
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseRupiah recovers the integer from a FormatRupiah string.
func ParseRupiah(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, strings.TrimSpace(CurrencyPrefix))
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if neg {
		v = -v
	}
	return v, nil
}
