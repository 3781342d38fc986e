package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/homecase-checkout/internal/infra/logging"
)

type credentials struct {
	Email    string
	Password string
}

func (c credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", c.Email),
		slog.String("password", c.Password),
	)
}

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := slog.New(logging.NewRedactingHandler(slog.NewJSONHandler(&buf, nil)))
	log = log.With("cardNumber", "4111111111111111")

	log.InfoContext(context.Background(), "submitted",
		logging.Group("user", "name", "Ada", "password", "hunter2"),
		"creds", credentials{Email: "ada@example.com", Password: "s3cret"},
		"amount", "12.50",
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, logging.RedactedValue, rec["cardNumber"])
	assert.Equal(t, "12.50", rec["amount"])

	user, ok := rec["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", user["name"])
	assert.Equal(t, logging.RedactedValue, user["password"])

	creds, ok := rec["creds"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", creds["email"])
	assert.Equal(t, logging.RedactedValue, creds["password"])

	assert.NotContains(t, buf.String(), "hunter2")
	assert.NotContains(t, buf.String(), "s3cret")
	assert.NotContains(t, buf.String(), "4111111111111111")
}

func TestRedactingHandlerCustomKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := slog.New(logging.NewRedactingHandler(slog.NewJSONHandler(&buf, nil), "token"))
	log.Info("issued", "token", "abc", "password", "visible")

	assert.NotContains(t, buf.String(), "abc")
	assert.Contains(t, buf.String(), "visible")
}
