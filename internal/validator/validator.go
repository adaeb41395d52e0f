package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// MoneyPlaces is the precision of every amount the wallet stores.
const MoneyPlaces = 2

var (
	RgxEmail = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	// RgxPhoneNumber accepts international (+234...) and local (080...) numbers.
	RgxPhoneNumber = regexp.MustCompile(`^(\+[1-9]\d{7,14}|0\d{10})$`)

	// RgxDigits matches meter and smart card numbers.
	RgxDigits = regexp.MustCompile(`^\d+$`)
)

type Validator struct {
	Errors []string `json:",omitempty"`
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) != 0
}

func (v *Validator) AddError(message string) {
	if v.Errors == nil {
		v.Errors = []string{}
	}

	v.Errors = append(v.Errors, message)
}

func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

// CheckAmount records at most one error for a money amount: it must be
// positive, no finer than a kobo and not below minimum. A zero minimum skips
// the lower bound.
func (v *Validator) CheckAmount(value, minimum decimal.Decimal) {
	switch {
	case !IsPositive(value):
		v.AddError("Amount must be greater than zero")
	case !MaxDecimalPlaces(value, MoneyPlaces):
		v.AddError("Amount must have at most two decimal places")
	case value.LessThan(minimum):
		v.AddError("Amount must be at least " + minimum.StringFixed(MoneyPlaces))
	}
}

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MinRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) >= n
}

func MaxRunes(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

func IsEmail(value string) bool {
	if len(value) > 254 {
		return false
	}

	return RgxEmail.MatchString(value)
}

func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	return slices.Contains(permittedValues, value)
}

func IsPositive(value decimal.Decimal) bool {
	return value.IsPositive()
}

// MaxDecimalPlaces ignores trailing zeros, so 10.500 passes for two places.
func MaxDecimalPlaces(value decimal.Decimal, places int32) bool {
	return value.Equal(value.Truncate(places))
}
