package phone

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// HomeCountryCode is the calling code validated with carrier-level rules
// instead of the plain length check from the reference table.
const HomeCountryCode = "98"

var (
	// ErrInvalidCountryCode marks a calling code missing from the reference table.
	ErrInvalidCountryCode = errors.New("invalid country code")
	// ErrInvalidPhoneNumber marks a national number that fails country rules.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
)

// Carrier prefixes currently assigned in the home country.
var homeCarrierPrefixes = map[string]struct{}{
	"901": {}, "902": {}, "903": {}, "904": {}, "905": {},
	"910": {}, "911": {}, "912": {}, "913": {}, "914": {},
	"915": {}, "916": {}, "917": {}, "918": {}, "919": {},
	"920": {}, "921": {}, "922": {},
	"930": {}, "931": {}, "932": {}, "933": {}, "934": {},
	"935": {}, "936": {}, "937": {}, "938": {}, "939": {},
	"990": {}, "991": {}, "992": {}, "993": {}, "994": {},
}

// Shape of a home-country mobile number once a leading zero is prefixed.
var homeNumberPattern = regexp.MustCompile(`^0(?:9[0-9][0-9]|9[0-5]|9[013-9]|99|93)[0-9]{7}$`)

var allDigits = regexp.MustCompile(`^[0-9]+$`)

// Validator normalizes and validates phone numbers per country rules.
type Validator struct {
	countries *Countries
}

// NewValidator builds a validator over the given reference table.
func NewValidator(countries *Countries) *Validator {
	return &Validator{countries: countries}
}

// ValidateCountryCode reports whether the calling code exists in the
// reference table.
func (v *Validator) ValidateCountryCode(code string) bool {
	_, ok := v.countries.Lookup(strings.TrimSpace(code))
	return ok
}

// Normalize validates the national number for the given calling code and
// returns the canonical representation used as the unique user key.
func (v *Validator) Normalize(phoneNumber, countryCode string) (string, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	countryCode = strings.TrimSpace(countryCode)

	country, ok := v.countries.Lookup(countryCode)
	if !ok {
		return "", ErrInvalidCountryCode
	}

	if countryCode == HomeCountryCode {
		if err := validateHomeNumber(phoneNumber); err != nil {
			return "", fmt.Errorf("%w. The supported format for the selected country is: %s", err, country.Format)
		}
	} else if len(phoneNumber) != country.NationalNumberLength {
		return "", fmt.Errorf("%w. The supported format for the selected country is: %s", ErrInvalidPhoneNumber, country.Format)
	}

	return "+" + countryCode + phoneNumber, nil
}

func validateHomeNumber(phoneNumber string) error {
	if !allDigits.MatchString(phoneNumber) {
		return ErrInvalidPhoneNumber
	}
	if len(phoneNumber) != 10 {
		return ErrInvalidPhoneNumber
	}
	if _, ok := homeCarrierPrefixes[phoneNumber[:3]]; !ok {
		return ErrInvalidPhoneNumber
	}
	if !homeNumberPattern.MatchString("0" + phoneNumber) {
		return ErrInvalidPhoneNumber
	}
	return nil
}
