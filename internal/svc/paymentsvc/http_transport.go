package paymentsvc

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mkrupp/homecase-checkout/internal/domain"
	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-checkout/internal/infra/transport/http"
)

// HTTPTransport serves the payment endpoint.
type HTTPTransport struct {
	paymentSvc *PaymentService
	log        logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport for paymentSvc.
func NewHTTPTransport(paymentSvc *PaymentService) *HTTPTransport {
	return &HTTPTransport{
		paymentSvc: paymentSvc,
		log:        logging.GetLogger("svc.paymentsvc.http_transport"),
	}
}

// ServeHTTP implements http.Handler and routes:
// - POST /payment/process: acknowledge a payment.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /payment/process", ht.HandleProcess)
	mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleProcess acknowledges a payment submission.
// Accepts optional body fields cardNumber and amount. The response is always
// the success fragment, even for bodies that cannot be decoded.
func (ht *HTTPTransport) HandleProcess(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleProcess(w, r)
}

func (ht *HTTPTransport) handleProcess(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "payment acknowledgement failed", "error", err)
		} else {
			log.DebugContext(ctx, "payment acknowledged")
		}
	}(r.Context())

	form, err := http_.DecodeForm(w, r)
	if err != nil {
		log.WarnContext(r.Context(), "payment body not decoded", "error", err)
	}

	receipt := ht.paymentSvc.Process(r.Context(), domain.Payment{
		CardNumber: form.Get("cardNumber"),
		Amount:     form.Get("amount"),
	})

	fragment := "<h2>" + template.HTMLEscapeString(receipt.Message) + "</h2>"

	if err := http_.WriteHTML(w, http.StatusOK, []byte(fragment)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
