package common

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// NormalizeRut strips dots and spaces and upper-cases the check digit,
// e.g. "12.345.678-k" becomes "12345678-K".
func NormalizeRut(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(".", "", " ", "").Replace(s)
	if !strings.Contains(s, "-") && len(s) > 1 {
		s = s[:len(s)-1] + "-" + s[len(s)-1:]
	}
	return s
}

// ValidRut reports whether s is a Chilean RUT with a correct mod-11 check digit.
func ValidRut(s string) bool {
	body, dv, ok := strings.Cut(NormalizeRut(s), "-")
	if !ok || len(body) < 1 || len(body) > 9 || len(dv) != 1 {
		return false
	}
	for _, r := range body {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return rutCheckDigit(body) == dv
}

func rutCheckDigit(body string) string {
	sum, factor := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}

func validateRut(fl validator.FieldLevel) bool {
	return ValidRut(fl.Field().String())
}
