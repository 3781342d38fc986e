package domain_test

import (
	"testing"
	"unicode/utf8"

	"github.com/mkrupp/homecase-checkout/internal/domain"
)

func TestPaymentMaskedCardNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cardNumber string
		want       string
	}{
		{name: "empty", cardNumber: "", want: ""},
		{name: "short", cardNumber: "123", want: "***"},
		{name: "exactly four", cardNumber: "1234", want: "****"},
		{name: "card number", cardNumber: "4111111111111111", want: "************1111"},
		{name: "multi-byte tail", cardNumber: "12345678€€€€", want: "********€€€€"},
		{name: "multi-byte head", cardNumber: "ñññ1234", want: "***1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := domain.Payment{CardNumber: tt.cardNumber}.MaskedCardNumber()
			if got != tt.want {
				t.Errorf("MaskedCardNumber() = %q, want %q", got, tt.want)
			}

			if !utf8.ValidString(got) {
				t.Errorf("MaskedCardNumber() = %q is not valid UTF-8", got)
			}
		})
	}
}
