package engine

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// phonePattern matches Kenyan mobile numbers in international form:
// 254 followed by nine digits.
var phonePattern = regexp.MustCompile(`^254[0-9]{9}$`)

// minAmount is the smallest tip the gateway accepts, in KES.
var minAmount = decimal.NewFromInt(1)

// ValidateTip checks a submission before anything is sent to the
// payments API. It is pure: no side effects, no network.
func ValidateTip(amount, phoneNumber string) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("%w: %q does not parse as a number", ErrInvalidAmount, amount)
	}
	if value.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum is 1 KES", ErrInvalidAmount)
	}
	if !phonePattern.MatchString(phoneNumber) {
		return fmt.Errorf("%w: expected format 254XXXXXXXXX", ErrInvalidPhoneNumber)
	}
	return nil
}
