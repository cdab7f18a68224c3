package ghostimport

import (
	"fmt"
	"regexp"
	"strings"
)

// isinPattern is a country code, a nine character national code and a check digit.
var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// ValidateISIN checks that isin is an upper-case ISO 6166 code whose last
// digit matches its check digit.
func ValidateISIN(isin string) error {
	if !isinPattern.MatchString(isin) {
		return fmt.Errorf("want a country code, 9 letters or digits and a check digit, got %q", isin)
	}
	if want, got := isinCheckDigit(isin[:11]), int(isin[11]-'0'); want != got {
		return fmt.Errorf("check digit of %q is %d, want %d", isin, got, want)
	}
	return nil
}

// isinCheckDigit is the Luhn check digit of the first 11 characters of an
// ISIN, letters counting as two digits (A is 10, Z is 35).
func isinCheckDigit(body string) int {
	digits := make([]int, 0, 2*len(body))
	for _, c := range body {
		if c >= 'A' && c <= 'Z' {
			v := int(c-'A') + 10
			digits = append(digits, v/10, v%10)
			continue
		}
		digits = append(digits, int(c-'0'))
	}
	sum := 0
	for i := range digits {
		d := digits[len(digits)-1-i]
		if i%2 == 0 {
			if d *= 2; d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// IsISIN reports whether s, once trimmed and upper-cased, is a valid ISIN.
func IsISIN(s string) bool {
	return ValidateISIN(strings.ToUpper(strings.TrimSpace(s))) == nil
}
