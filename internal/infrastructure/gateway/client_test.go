package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test", Timeout: time.Second})
}

func TestClient_Initialize(t *testing.T) {
	ctx := context.Background()
	req := InitRequest{
		Amount:      decimal.RequireFromString("250"),
		Currency:    "ETB",
		TxRef:       "ref-1",
		ReturnURL:   "http://localhost:8080/callback",
		Title:       "Booking Payment",
		Description: "Payment for booking 42",
	}

	t.Run("Success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "250.00", r.PostForm.Get("amount"))
			assert.Equal(t, "ETB", r.PostForm.Get("currency"))
			assert.Equal(t, "ref-1", r.PostForm.Get("tx_ref"))
			assert.Equal(t, "http://localhost:8080/callback", r.PostForm.Get("return_url"))
			assert.Equal(t, "Booking Payment", r.PostForm.Get("customization[title]"))
			assert.Equal(t, "Payment for booking 42", r.PostForm.Get("customization[description]"))
			w.Write([]byte(`{"status":"success","data":{"tx_ref":"X","checkout_url":"U"}}`))
		})

		res, err := client.Initialize(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "X", res.TxRef)
		assert.Equal(t, "U", res.CheckoutURL)
		assert.JSONEq(t, `{"status":"success","data":{"tx_ref":"X","checkout_url":"U"}}`, string(res.Raw))
	})

	t.Run("MissingCheckoutURL", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"tx_ref":"X"}}`))
		})

		res, err := client.Initialize(ctx, req)
		assert.Nil(t, res)
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayMalformed, gwErr.Kind)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>oops</html>`))
		})

		_, err := client.Initialize(ctx, req)
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayMalformed, gwErr.Kind)
	})

	t.Run("NonOKStatusPropagated", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Invalid API Key","status":"failed"}`))
		})

		_, err := client.Initialize(ctx, req)
		assert.ErrorIs(t, err, pkgerrors.ErrGateway)
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayStatus, gwErr.Kind)
		assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
		assert.JSONEq(t, `{"message":"Invalid API Key","status":"failed"}`, string(gwErr.Body))
	})
}

func TestClient_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
			w.Write([]byte(`{"data":{"status":"success"}}`))
		})

		res, err := client.Verify(ctx, "ref-1")
		require.NoError(t, err)
		assert.Equal(t, "success", res.Status)
		assert.True(t, res.Successful())
	})

	t.Run("UnrecognizedStatusIsNotSuccess", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"status":"SUCCESSFUL-ish"}}`))
		})

		res, err := client.Verify(ctx, "ref-1")
		require.NoError(t, err)
		assert.False(t, res.Successful())
	})

	t.Run("MissingStatus", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":null}`))
		})

		_, err := client.Verify(ctx, "ref-1")
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayMalformed, gwErr.Kind)
	})

	t.Run("NotFound", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Invalid transaction or Transaction not found"}`))
		})

		_, err := client.Verify(ctx, "ref-1")
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayStatus, gwErr.Kind)
		assert.Equal(t, http.StatusNotFound, gwErr.StatusCode)
	})

	t.Run("Timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)
		client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test", Timeout: 50 * time.Millisecond})

		_, err := client.Verify(ctx, "ref-1")
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayTransport, gwErr.Kind)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		client := NewClient(Config{BaseURL: url, SecretKey: "sk_test", Timeout: time.Second})

		_, err := client.Verify(ctx, "ref-1")
		assert.True(t, errors.Is(err, pkgerrors.ErrGateway))
		gwErr, ok := pkgerrors.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, pkgerrors.GatewayTransport, gwErr.Kind)
	})
}
