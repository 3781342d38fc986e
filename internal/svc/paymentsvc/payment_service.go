package paymentsvc

import (
	"context"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

// SuccessMessage is the acknowledgement returned for every payment.
const SuccessMessage = "Payment Successful!"

// PaymentService acknowledges payment submissions. Nothing is charged or stored.
type PaymentService struct {
	Log logging.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService() *PaymentService {
	return &PaymentService{
		Log: logging.GetLogger("svc.paymentsvc.payment_service"),
	}
}

// Process records the submission in the log and returns the receipt.
func (s *PaymentService) Process(ctx context.Context, payment domain.Payment) domain.PaymentReceipt {
	s.Log.InfoContext(ctx, "payment info", logging.Group("payment",
		"card", payment.MaskedCardNumber(),
		"amount", payment.Amount,
	))

	return domain.PaymentReceipt{Message: SuccessMessage}
}
