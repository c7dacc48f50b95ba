// Package gatewaytest provides an in-memory gateway.Gateway for service tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/fastprodman/walletledger/internal/gateway"
)

var _ gateway.Gateway = (*Fake)(nil)

type Fake struct {
	mu          sync.Mutex
	results     map[string]gateway.Result
	verifyErr   error
	initErr     error
	verifyCalls map[string]int
	initialized []gateway.InitializeRequest
}

func New() *Fake {
	return &Fake{
		results:     make(map[string]gateway.Result),
		verifyCalls: make(map[string]int),
	}
}

// Set makes Verify(reference) answer with status and amount.
func (f *Fake) Set(reference string, status gateway.Status, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.results[reference] = gateway.Result{
		Status:        status,
		Amount:        amount,
		Currency:      "NGN",
		Reference:     reference,
		GatewayStatus: string(status),
		Raw:           []byte(fmt.Sprintf(`{"status":%q,"amount":%d}`, status, amount)),
	}
}

// FailVerify makes every Verify return err until reset with nil.
func (f *Fake) FailVerify(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyErr = err
}

func (f *Fake) FailInitialize(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
}

func (f *Fake) VerifyCalls(reference string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls[reference]
}

func (f *Fake) Initialized() []gateway.InitializeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gateway.InitializeRequest(nil), f.initialized...)
}

func (f *Fake) Initialize(_ context.Context, req gateway.InitializeRequest) (gateway.Checkout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initErr != nil {
		return gateway.Checkout{}, f.initErr
	}

	f.initialized = append(f.initialized, req)

	return gateway.Checkout{
		CheckoutURL: "https://checkout.test/" + req.Reference,
		AccessCode:  "ac_" + req.Reference,
		Reference:   req.Reference,
	}, nil
}

// Verify answers pending for references nobody Set.
func (f *Fake) Verify(_ context.Context, reference string) (gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifyCalls[reference]++

	if f.verifyErr != nil {
		return gateway.Result{}, f.verifyErr
	}

	res, ok := f.results[reference]
	if !ok {
		return gateway.Result{Status: gateway.StatusPending, Reference: reference}, nil
	}

	return res, nil
}
