// Package paystack is the Paystack implementation of gateway.Gateway plus
// the helpers needed to trust its webhooks.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fastprodman/walletledger/internal/config"
	"github.com/fastprodman/walletledger/internal/gateway"
	"go.uber.org/zap"
)

var _ gateway.Gateway = (*Client)(nil)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	http        *http.Client
}

func New(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		http:        &http.Client{Timeout: cfg.Timeout},
	}
}

// envelope is the shape of every Paystack API answer.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string    `json:"status"`
	Reference       string    `json:"reference"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	GatewayResponse string    `json:"gateway_response"`
	TransactionDate time.Time `json:"transaction_date"`
	PaidAt          time.Time `json:"paid_at"`
}

func (c *Client) Initialize(ctx context.Context, req gateway.InitializeRequest) (gateway.Checkout, error) {
	callback := req.CallbackURL
	if callback == "" {
		callback = c.callbackURL
	}

	body := map[string]any{
		"email":     req.Email,
		"amount":    req.Amount,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if callback != "" {
		body["callback_url"] = callback
	}

	env, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return gateway.Checkout{}, err
	}

	var data initializeData

	err = json.Unmarshal(env.Data, &data)
	if err != nil {
		return gateway.Checkout{}, fmt.Errorf("%w: decode initialize data: %v", gateway.ErrGatewayUnavailable, err)
	}

	return gateway.Checkout{
		CheckoutURL: data.AuthorizationURL,
		AccessCode:  data.AccessCode,
		Reference:   data.Reference,
	}, nil
}

func (c *Client) Verify(ctx context.Context, reference string) (gateway.Result, error) {
	env, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return gateway.Result{}, err
	}

	var data verifyData

	err = json.Unmarshal(env.Data, &data)
	if err != nil {
		return gateway.Result{}, fmt.Errorf("%w: decode verify data: %v", gateway.ErrGatewayUnavailable, err)
	}

	date := data.PaidAt
	if date.IsZero() {
		date = data.TransactionDate
	}

	return gateway.Result{
		Status:          MapStatus(data.Status),
		Amount:          data.Amount,
		Currency:        data.Currency,
		Reference:       data.Reference,
		GatewayStatus:   data.Status,
		Message:         data.GatewayResponse,
		TransactionDate: date,
		Raw:             env.Data,
	}, nil
}

// MapStatus folds Paystack's transaction states into the three the ledger
// acts on. Unknown states are treated as still pending.
func MapStatus(s string) gateway.Status {
	switch strings.ToLower(s) {
	case "success":
		return gateway.StatusSuccess
	case "failed", "reversed", "abandoned":
		return gateway.StatusFailed
	default:
		return gateway.StatusPending
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (envelope, error) {
	var rdr io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("gateway call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))

		return envelope{}, fmt.Errorf("%w: %v", gateway.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return envelope{}, fmt.Errorf("%w: read body: %v", gateway.ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return envelope{}, fmt.Errorf("%w: %s %s: http %d", gateway.ErrGatewayUnavailable, method, path, resp.StatusCode)
	}

	var env envelope

	err = json.Unmarshal(raw, &env)
	if err != nil {
		return envelope{}, fmt.Errorf("%w: decode %s: %v", gateway.ErrGatewayUnavailable, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Status {
		return envelope{}, fmt.Errorf("%w: %s", gateway.ErrGatewayRejected, env.Message)
	}

	return env, nil
}
