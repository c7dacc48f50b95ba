package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/fastprodman/walletledger/internal/metrics"
)

type instrumented struct {
	next Gateway
}

// Instrument records call counts and latency for g.
func Instrument(g Gateway) Gateway {
	return &instrumented{next: g}
}

func (i *instrumented) Initialize(ctx context.Context, req InitializeRequest) (Checkout, error) {
	started := time.Now()
	out, err := i.next.Initialize(ctx, req)
	observe("initialize", started, err)
	return out, err
}

func (i *instrumented) Verify(ctx context.Context, reference string) (Result, error) {
	started := time.Now()
	out, err := i.next.Verify(ctx, reference)
	observe("verify", started, err)
	return out, err
}

func observe(op string, started time.Time, err error) {
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())

	result := "ok"
	switch {
	case errors.Is(err, ErrGatewayUnavailable):
		result = "unavailable"
	case errors.Is(err, ErrGatewayRejected):
		result = "rejected"
	case err != nil:
		result = "error"
	}

	metrics.GatewayRequests.WithLabelValues(op, result).Inc()
}
