// Package price turns raw scraped price strings into whole currency units.
package price

import (
	"strconv"
	"strings"
)

// Normalize parses a raw price string into an integer amount of whole currency
// units. Fractional units are dropped, never rounded. It never fails: anything
// unparseable comes back as 0.
//
//	"11 999,00" -> 11999
//	"999"       -> 999
//	""          -> 0
//	"abc"       -> 0
//
// Strings carrying both a thousands separator and a decimal separator
// ("1.200,50") truncate at the first separator and come back as 1. Stored data
// was produced with this exact behavior, so it is kept as is; changing the
// separator handling would silently reinterpret historical prices.
func Normalize(raw string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' {
			return r
		}
		return -1
	}, raw)

	if cleaned == "" {
		return 0
	}

	if strings.ContainsAny(cleaned, ",.") {
		// Unify the decimal separator and keep the part before the first one.
		unified := strings.ReplaceAll(cleaned, ",", ".")
		intPart, _, _ := strings.Cut(unified, ".")

		n, err := strconv.Atoi(intPart)
		if err != nil {
			return 0
		}
		return n
	}

	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}
