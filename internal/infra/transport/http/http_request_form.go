package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// MaxFormBodySize caps the size of JSON and multipart request bodies.
	MaxFormBodySize = 1 << 20

	contentTypeJSON      = "application/json"
	contentTypeMultipart = "multipart/form-data"
)

// ErrMalformedBody is returned when a request body cannot be decoded.
var ErrMalformedBody = errors.New("malformed request body")

// DecodeForm returns the submitted body fields of r as url.Values.
// URL-encoded, multipart and JSON bodies are accepted. JSON scalars are
// converted to their textual form, JSON null is treated as absent and nested
// values are kept as their JSON encoding. Query parameters are not included.
func DecodeForm(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case contentTypeJSON:
		return decodeJSONForm(http.MaxBytesReader(w, r.Body, MaxFormBodySize))
	case contentTypeMultipart:
		if err := r.ParseMultipartForm(MaxFormBodySize); err != nil {
			return url.Values{}, errors.Join(ErrMalformedBody, fmt.Errorf("parse multipart form: %w", err))
		}
	default:
		if err := r.ParseForm(); err != nil {
			return url.Values{}, errors.Join(ErrMalformedBody, fmt.Errorf("parse form: %w", err))
		}
	}

	if r.PostForm == nil {
		return url.Values{}, nil
	}

	return r.PostForm, nil
}

func decodeJSONForm(body io.Reader) (url.Values, error) {
	values := url.Values{}

	dec := json.NewDecoder(body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return values, nil
		}

		return values, errors.Join(ErrMalformedBody, fmt.Errorf("decode json: %w", err))
	}

	for key, raw := range fields {
		switch v := raw.(type) {
		case nil:
			continue
		case string:
			values.Set(key, v)
		case json.Number:
			values.Set(key, v.String())
		case bool:
			values.Set(key, strconv.FormatBool(v))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return values, fmt.Errorf("encode %s: %w", key, err)
			}

			values.Set(key, string(encoded))
		}
	}

	return values, nil
}
