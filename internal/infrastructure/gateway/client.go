package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const (
	DefaultBaseURL = "https://api.chapa.co/v1"
	DefaultTimeout = 15 * time.Second

	// StatusSuccess is the only verify status treated as a paid transaction.
	StatusSuccess = "success"

	opInitialize = "initialize"
	opVerify     = "verify"

	maxBodyBytes = 1 << 20
)

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client talks to a Chapa compatible initialize/verify API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type InitRequest struct {
	Amount      decimal.Decimal
	Currency    string
	TxRef       string
	ReturnURL   string
	Title       string
	Description string
}

type InitResult struct {
	TxRef       string
	CheckoutURL string
	Raw         json.RawMessage
}

type VerifyResult struct {
	Status string
	Raw    json.RawMessage
}

// Successful reports whether the gateway considers the transaction paid.
// Unknown statuses are not successful.
func (r *VerifyResult) Successful() bool {
	return r.Status == StatusSuccess
}

type initResponse struct {
	Data *struct {
		TxRef       *string `json:"tx_ref"`
		CheckoutURL *string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Data *struct {
		Status *string `json:"status"`
	} `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	tracer := otel.Tracer("payment-gateway")
	ctx, span := tracer.Start(ctx, "GatewayInitialize")
	span.SetAttributes(
		attribute.String("tx_ref", req.TxRef),
		attribute.String("amount", req.Amount.StringFixed(2)),
		attribute.String("currency", req.Currency),
	)
	defer span.End()

	form := url.Values{}
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tx_ref", req.TxRef)
	form.Set("return_url", req.ReturnURL)
	form.Set("customization[title]", req.Title)
	form.Set("customization[description]", req.Description)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, c.fail(span, opInitialize, &pkgerrors.GatewayError{Kind: pkgerrors.GatewayTransport, Op: opInitialize, Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(httpReq, opInitialize)
	if err != nil {
		return nil, c.fail(span, opInitialize, err)
	}

	var parsed initResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, c.fail(span, opInitialize, malformed(opInitialize, body, err))
	}
	if parsed.Data == nil || parsed.Data.TxRef == nil || parsed.Data.CheckoutURL == nil ||
		*parsed.Data.TxRef == "" || *parsed.Data.CheckoutURL == "" {
		return nil, c.fail(span, opInitialize, malformed(opInitialize, body, stderrors.New("data.tx_ref and data.checkout_url are required")))
	}

	observability.GatewayCalls.WithLabelValues(opInitialize, "success").Inc()
	slog.Info("payment initialized at gateway", "tx_ref", req.TxRef, "gateway_tx_ref", *parsed.Data.TxRef)
	return &InitResult{
		TxRef:       *parsed.Data.TxRef,
		CheckoutURL: *parsed.Data.CheckoutURL,
		Raw:         json.RawMessage(body),
	}, nil
}

func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	tracer := otel.Tracer("payment-gateway")
	ctx, span := tracer.Start(ctx, "GatewayVerify")
	span.SetAttributes(attribute.String("tx_ref", txRef))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+url.PathEscape(txRef), nil)
	if err != nil {
		return nil, c.fail(span, opVerify, &pkgerrors.GatewayError{Kind: pkgerrors.GatewayTransport, Op: opVerify, Err: err})
	}

	body, err := c.do(httpReq, opVerify)
	if err != nil {
		return nil, c.fail(span, opVerify, err)
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, c.fail(span, opVerify, malformed(opVerify, body, err))
	}
	if parsed.Data == nil || parsed.Data.Status == nil {
		return nil, c.fail(span, opVerify, malformed(opVerify, body, stderrors.New("data.status is required")))
	}

	span.SetAttributes(attribute.String("gateway_status", *parsed.Data.Status))
	observability.GatewayCalls.WithLabelValues(opVerify, "success").Inc()
	slog.Info("payment verified at gateway", "tx_ref", txRef, "gateway_status", *parsed.Data.Status)
	return &VerifyResult{Status: *parsed.Data.Status, Raw: json.RawMessage(body)}, nil
}

// do sends the request and returns the body of a 200 response. Anything
// else becomes a *GatewayError.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &pkgerrors.GatewayError{Kind: pkgerrors.GatewayTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &pkgerrors.GatewayError{Kind: pkgerrors.GatewayTransport, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &pkgerrors.GatewayError{
			Kind:       pkgerrors.GatewayStatus,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	return body, nil
}

func (c *Client) fail(span trace.Span, op string, err error) error {
	outcome := "error"
	if gwErr, ok := pkgerrors.AsGatewayError(err); ok {
		outcome = string(gwErr.Kind)
	}
	observability.GatewayCalls.WithLabelValues(op, outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	slog.Error("payment gateway call failed", "op", op, "outcome", outcome, "error", err)
	return err
}

func malformed(op string, body []byte, err error) error {
	return &pkgerrors.GatewayError{Kind: pkgerrors.GatewayMalformed, Op: op, StatusCode: http.StatusOK, Body: body, Err: err}
}
