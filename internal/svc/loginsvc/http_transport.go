package loginsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
	http_ "github.com/mkrupp/homecase-checkout/internal/infra/transport/http"
)

//nolint:gochecknoglobals
var greetingTemplate = template.Must(template.New("greeting").Parse(
	`<h2>Welcome, {{.Name}}!</h2><a href="/payment.html">Go to Payment</a>`,
))

// HTTPTransport serves the login endpoint.
type HTTPTransport struct {
	loginSvc *LoginService
	log      logging.Logger
}

// NewHTTPTransport creates a new HTTPTransport for loginSvc.
func NewHTTPTransport(loginSvc *LoginService) *HTTPTransport {
	return &HTTPTransport{
		loginSvc: loginSvc,
		log:      logging.GetLogger("svc.loginsvc.http_transport"),
	}
}

// ServeHTTP implements http.Handler and routes:
// - POST /auth/login: find or create the user and greet them.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", ht.HandleLogin)
	mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// HandleLogin processes login submissions.
// Expects body fields name, email and password; missing fields are empty.
// Responds with an HTML greeting for the resolved user.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	form, err := http_.DecodeForm(w, r)
	if err != nil {
		if errors.Is(err, http_.ErrMalformedBody) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		} else {
			http_.ServerError(w)
		}

		return fmt.Errorf("decode form: %w", err)
	}

	email := form.Get("email")
	log = log.With(logging.Group("user", "email", email))

	user, _, err := ht.loginSvc.Login(r.Context(), form.Get("name"), email, form.Get("password"))
	if err != nil {
		http_.ServerError(w)

		return fmt.Errorf("login: %w", err)
	}

	var greeting bytes.Buffer
	if err := greetingTemplate.Execute(&greeting, user); err != nil {
		http_.ServerError(w)

		return fmt.Errorf("render greeting: %w", err)
	}

	if err := http_.WriteHTML(w, http.StatusOK, greeting.Bytes()); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
