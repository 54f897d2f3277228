package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func valid() Card {
	return Card{
		Number: "4242424242424242",
		Expiry: "09/27",
		CVV:    "123",
		Holder: "Sam Doe",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{"ok", func(c *Card) {}, nil},
		{"short_number", func(c *Card) { c.Number = "4242" }, ErrCardNumber},
		{"letters_in_number", func(c *Card) { c.Number = "4242abcd42424242" }, ErrCardNumber},
		{"bad_month", func(c *Card) { c.Expiry = "13/27" }, ErrExpiry},
		{"zero_month", func(c *Card) { c.Expiry = "00/27" }, ErrExpiry},
		{"long_year", func(c *Card) { c.Expiry = "09/2027" }, ErrExpiry},
		{"missing_slash", func(c *Card) { c.Expiry = "0927" }, ErrExpiry},
		{"short_cvv", func(c *Card) { c.CVV = "12" }, ErrCVV},
		{"long_cvv", func(c *Card) { c.CVV = "1234" }, ErrCVV},
		{"empty_holder", func(c *Card) { c.Holder = "" }, ErrHolder},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := Validate(c)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
