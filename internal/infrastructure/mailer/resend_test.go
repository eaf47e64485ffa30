package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMailer(t *testing.T, handler http.HandlerFunc, from string) *ResendMailer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := resend.NewClient("re_key")
	baseURL, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL
	return newResendMailer(client, from)
}

func TestResendMailer_Send(t *testing.T) {
	ctx := context.Background()
	email := Email{To: "guest@example.com", Subject: "Booking Confirmation", Text: "hello"}

	t.Run("Success", func(t *testing.T) {
		m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/emails", r.URL.Path)
			assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
			var got struct {
				From    string   `json:"from"`
				To      []string `json:"to"`
				Subject string   `json:"subject"`
				Text    string   `json:"text"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "noreply@travel.test", got.From)
			assert.Equal(t, []string{"guest@example.com"}, got.To)
			assert.Equal(t, "Booking Confirmation", got.Subject)
			assert.Equal(t, "hello", got.Text)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"1"}`))
		}, "noreply@travel.test")

		assert.NoError(t, m.Send(ctx, email))
	})

	t.Run("ProviderError", func(t *testing.T) {
		m := newTestMailer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"invalid from"}`))
		}, "bad")

		err := m.Send(ctx, email)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("NoAPIKey", func(t *testing.T) {
		m := NewResendMailer("", "noreply@travel.test")
		assert.ErrorIs(t, m.Send(ctx, email), ErrNotConfigured)
	})
}
