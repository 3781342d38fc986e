package domain

import "strings"

const cardNumberVisibleDigits = 4

// Payment is a transient payment submission. It is never persisted.
type Payment struct {
	CardNumber string
	Amount     string
}

// MaskedCardNumber returns the card number with all but the last four characters replaced by '*'.
func (p Payment) MaskedCardNumber() string {
	runes := []rune(p.CardNumber)

	n := len(runes)
	if n <= cardNumberVisibleDigits {
		return strings.Repeat("*", n)
	}

	return strings.Repeat("*", n-cardNumberVisibleDigits) + string(runes[n-cardNumberVisibleDigits:])
}

// PaymentReceipt is the acknowledgement returned for a processed payment.
type PaymentReceipt struct {
	Message string
}
