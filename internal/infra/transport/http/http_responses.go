package http

import (
	"fmt"
	"net/http"
)

// ServerErrorMessage is the only detail surfaced to clients on internal failures.
const ServerErrorMessage = "Server error"

// ServerError answers with a plain-text 500 carrying no failure details.
func ServerError(w http.ResponseWriter) {
	http.Error(w, ServerErrorMessage, http.StatusInternalServerError)
}

// WriteHTML writes an HTML fragment with the given status code.
func WriteHTML(w http.ResponseWriter, status int, fragment []byte) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := w.Write(fragment); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}
