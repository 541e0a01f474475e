// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country prefix.
const DefaultRegion = "CN"

// Normalizer canonicalises phone numbers for one default region.
type Normalizer struct {
	region string
}

// NewNormalizer returns a Normalizer for region, falling back to DefaultRegion.
func NewNormalizer(region string) *Normalizer {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Normalizer{region: region}
}

// Normalize trims the input and, for numbers of the default region, returns
// the national significant number so "+86 138-0000-0000" and "13800000000"
// compare equal. Numbers of other regions are returned as E.164. When the
// input cannot be parsed the trimmed input is returned.
func (n *Normalizer) Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	if phonenumbers.GetRegionCodeForNumber(number) == n.region {
		return phonenumbers.GetNationalSignificantNumber(number)
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// NormalizeE164 formats a phone number to E.164 using DefaultRegion. If parsing
// fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
