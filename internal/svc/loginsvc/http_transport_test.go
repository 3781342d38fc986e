package loginsvc_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-checkout/internal/repo/user"
	"github.com/mkrupp/homecase-checkout/internal/svc/loginsvc"
)

func postForm(t *testing.T, h http.Handler, values url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHTTPTransport_HandleLogin(t *testing.T) {
	t.Parallel()

	repo := user.NewMemoryUserRepository(true)
	h := loginsvc.NewHTTPTransport(newService(repo, true))

	rec := postForm(t, h, url.Values{
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"password": {"secret"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<h2>Welcome, Ada!</h2><a href="/payment.html">Go to Payment</a>`, rec.Body.String())
	assert.Equal(t, 1, repo.Len())

	// returning user with a different name and password is greeted by the stored name
	rec = postForm(t, h, url.Values{
		"name":     {"Mallory"},
		"email":    {"ada@example.com"},
		"password": {"anything"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, Ada!")
	assert.Equal(t, 1, repo.Len())
}

func TestHTTPTransport_HandleLoginJSON(t *testing.T) {
	t.Parallel()

	repo := user.NewMemoryUserRepository(true)
	h := loginsvc.NewHTTPTransport(newService(repo, true))

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"name":"<b>Bob</b>","email":"bob@example.com"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, &lt;b&gt;Bob&lt;/b&gt;!")

	stored := repo.UsersByEmail("bob@example.com")
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].Password)
}

func TestHTTPTransport_HandleLoginErrors(t *testing.T) {
	t.Parallel()

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		repo := &failingUserRepository{}
		h := loginsvc.NewHTTPTransport(newService(repo, false))

		rec := postForm(t, h, url.Values{"name": {"Ada"}, "email": {"ada@example.com"}})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Server error\n", rec.Body.String())
		assert.Zero(t, repo.creates)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		t.Parallel()

		h := loginsvc.NewHTTPTransport(newService(user.NewUnavailableUserRepository(user.ErrNoStorageURI), true))

		rec := postForm(t, h, url.Values{"email": {"ada@example.com"}})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Server error\n", rec.Body.String())
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		repo := user.NewMemoryUserRepository(true)
		h := loginsvc.NewHTTPTransport(newService(repo, true))

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, repo.Len())
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()

		h := loginsvc.NewHTTPTransport(newService(user.NewMemoryUserRepository(true), true))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
