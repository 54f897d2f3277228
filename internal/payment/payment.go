package payment

import (
	"errors"
	"regexp"
)

var (
	ErrCardNumber = errors.New("card number must be 16 digits")
	ErrExpiry     = errors.New("expiry date must be in MM/YY format")
	ErrCVV        = errors.New("cvv must be 3 digits")
	ErrHolder     = errors.New("card holder name is required")
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3}$`)
)

type Card struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVV    string `json:"cvv"`
	Holder string `json:"holder"`
}

// Validate applies the card-form rules. First failure wins; nothing is
// charged here, payment collection itself is the provider's problem.
func Validate(c Card) error {
	if !cardNumberRe.MatchString(c.Number) {
		return ErrCardNumber
	}
	if !expiryRe.MatchString(c.Expiry) {
		return ErrExpiry
	}
	if !cvvRe.MatchString(c.CVV) {
		return ErrCVV
	}
	if c.Holder == "" {
		return ErrHolder
	}
	return nil
}
