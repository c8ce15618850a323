// Package phone normalizes Danish phone numbers into their 8-digit local form.
package phone

import (
	"errors"
	"strings"
	"unicode"
)

// CountryCode is prepended when a number is handed to the SMS gateway.
const CountryCode = "45"

const localDigits = 8

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// Parse strips whitespace and returns the 8 local digits. A +45 or 0045
// prefix is only recognized when exactly 8 digits follow it, so an 8-digit
// number is always taken as is and Parse(Parse(x)) == Parse(x).
func Parse(raw string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	switch len(compact) {
	case localDigits:
	case len("+"+CountryCode) + localDigits:
		if !strings.HasPrefix(compact, "+"+CountryCode) {
			return "", ErrInvalidPhoneNumber
		}
		compact = compact[len("+"+CountryCode):]
	case len("00"+CountryCode) + localDigits:
		if !strings.HasPrefix(compact, "00"+CountryCode) {
			return "", ErrInvalidPhoneNumber
		}
		compact = compact[len("00"+CountryCode):]
	default:
		return "", ErrInvalidPhoneNumber
	}

	for _, r := range compact {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhoneNumber
		}
	}
	return compact, nil
}

// International returns the gateway form of a canonical number, e.g. 4512345678.
func International(canonical string) string {
	return CountryCode + canonical
}
