package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"pengeluaran/internal/core"
)

// Magnitude suffixes and their multipliers.
var multipliers = map[string]float64{
	"k":    1_000,
	"rb":   1_000,
	"ribu": 1_000,
	"jt":   1_000_000,
	"juta": 1_000_000,
}

// pricePattern matches "<number>[<suffix>] <rest>". Only the fixed suffix set is captured.
var pricePattern = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(k|rb|ribu|jt|juta)?\s+(.+)$`)

// ParseAmount reads the leading price token of text.
//
// It returns the truncated integer amount and the remainder of the line.
// ok is false when there is no leading number, nothing follows it, or the
// computed amount is not positive or exceeds core.MaxAmount.
//
// Examples:
//
//	ParseAmount("25k naspad")      -> 25000, "naspad", true
//	ParseAmount("2,5jt laptop")    -> 2500000, "laptop", true
//	ParseAmount("5000")            -> 0, "", false
func ParseAmount(text string) (amount int64, rest string, ok bool) {
	m := pricePattern.FindStringSubmatch(asciiSpaces(text))
	if m == nil {
		return 0, "", false
	}
	amount, ok = amountOf(m[1], m[2])
	if !ok {
		return 0, "", false
	}
	return amount, m[3], true
}

func amountOf(number, suffix string) (int64, bool) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	mult := 1.0
	if suffix != "" {
		m, found := multipliers[strings.ToLower(suffix)]
		if !found {
			return 0, false
		}
		mult = m
	}
	value = math.Trunc(value * mult)
	if math.IsNaN(value) || math.IsInf(value, 0) || value > float64(core.MaxAmount) {
		return 0, false
	}
	amount := int64(value)
	if amount <= 0 {
		return 0, false
	}
	return amount, true
}

// asciiSpaces rewrites Unicode whitespace such as the no-break space pasted
// by mobile keyboards to a plain space, which is all \s matches in RE2.
func asciiSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r != ' ' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
