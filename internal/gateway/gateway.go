// Package gateway abstracts the external payment gateway. Implementations
// never touch local state.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrGatewayUnavailable covers network errors, timeouts and 5xx answers.
	// The caller may retry; the local transaction stays PENDING.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected is an authoritative refusal of the request.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

type InitializeRequest struct {
	Email       string
	Amount      int64 // minor units
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

type Checkout struct {
	CheckoutURL string
	AccessCode  string
	Reference   string
}

type Result struct {
	Status          Status
	Amount          int64 // minor units
	Currency        string
	Reference       string
	GatewayStatus   string // gateway's own status word
	Message         string
	TransactionDate time.Time
	Raw             json.RawMessage
}

type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (Checkout, error)
	Verify(ctx context.Context, reference string) (Result, error)
}
