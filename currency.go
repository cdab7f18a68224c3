package ghostimport

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// minorUnit describes a quote currency expressed in a fraction of an ISO
// currency, like the London Stock Exchange quoting in pence (GBp).
type minorUnit struct {
	major  string
	factor int64
}

// minorUnits is the aliasing table between quote units and ISO 4217 codes.
// Keys are matched case-sensitively first, then upper-cased, because "GBp"
// and "GBP" differ only by case.
var minorUnits = map[string]minorUnit{
	"GBp": {"GBP", 100},
	"GBX": {"GBP", 100},
	"ZAc": {"ZAR", 100},
	"ZAX": {"ZAR", 100},
	"ILA": {"ILS", 100},
	"ILs": {"ILS", 100},
	"USX": {"USD", 100},
}

func lookupMinorUnit(code string) (minorUnit, bool) {
	if u, ok := minorUnits[code]; ok {
		return u, true
	}
	u, ok := minorUnits[strings.ToUpper(code)]
	return u, ok
}

// CanonicalCurrency returns the ISO 4217 code for a currency as quoted by a
// broker or a provider: minor-unit codes map to their major currency and
// everything else is upper-cased. The empty string stays empty.
func CanonicalCurrency(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if u, ok := lookupMinorUnit(code); ok {
		return u.major
	}
	return strings.ToUpper(code)
}

// MinorUnitFactor returns how many units of code make one unit of its major
// currency: 100 for GBp, 1 for GBP.
func MinorUnitFactor(code string) decimal.Decimal {
	// "GBP" must not be read as "GBp": only exact or upper-case minor codes count.
	if u, ok := minorUnits[strings.TrimSpace(code)]; ok {
		return decimal.NewFromInt(u.factor)
	}
	return decimal.NewFromInt(1)
}

// IsMinorUnit reports whether code is a minor-unit quote currency (GBp, ZAc, ...).
func IsMinorUnit(code string) bool {
	_, ok := minorUnits[strings.TrimSpace(code)]
	return ok
}

// SameCurrency reports whether two currency codes designate the same
// currency once aliased. Comparison is case-insensitive.
func SameCurrency(a, b string) bool {
	return strings.EqualFold(CanonicalCurrency(a), CanonicalCurrency(b))
}

// ValidCurrency reports whether code is a known ISO 4217 currency, after aliasing.
func ValidCurrency(code string) bool {
	c := CanonicalCurrency(code)
	return c != "" && money.GetCurrency(c) != nil
}
