package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/services/reconcile"
	"github.com/fastprodman/walletledger/internal/services/transfer"
	"github.com/fastprodman/walletledger/internal/services/wallet"
	"github.com/fastprodman/walletledger/internal/services/webhook"
	"go.uber.org/zap"
)

type WalletService interface {
	Get(ctx context.Context, userID string) (wallet.Summary, error)
	Transactions(ctx context.Context, userID string, f ledger.Filter) (wallet.Page, error)
	AllTransactions(ctx context.Context, f ledger.Filter) (wallet.Page, error)
	Transaction(ctx context.Context, userID, id string) (ledger.Transaction, error)
	TransactionByReference(ctx context.Context, userID, reference string) (ledger.Transaction, error)
	Fund(ctx context.Context, req wallet.FundRequest) (wallet.Initiated, error)
	Withdraw(ctx context.Context, req wallet.WithdrawRequest) (ledger.Transaction, ledger.Wallet, error)
	Pay(ctx context.Context, req wallet.PaymentRequest) (wallet.Initiated, error)
	Review(ctx context.Context, req wallet.ReviewRequest) (ledger.Transaction, error)
	RemoveForUser(ctx context.Context, userID string) error
}

type TransferService interface {
	Transfer(ctx context.Context, req transfer.Request) (transfer.Result, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, reference string) (reconcile.Result, error)
	Stale(ctx context.Context, olderThan time.Duration, limit int) ([]ledger.Transaction, error)
	AwaitingReview(ctx context.Context, olderThan time.Duration, limit int) ([]ledger.Transaction, error)
}

type WebhookIntake interface {
	Handle(ctx context.Context, body []byte, signature string) webhook.Disposition
}

// HandlerProvider exposes the wallet, admin and webhook HTTP handlers.
type HandlerProvider struct {
	wallets    WalletService
	transfers  TransferService
	reconciler Reconciler
	webhooks   WebhookIntake
}

func NewHandler(w WalletService, t TransferService, r Reconciler, wh WebhookIntake) *HandlerProvider {
	return &HandlerProvider{wallets: w, transfers: t, reconciler: r, webhooks: wh}
}

// --- Helpers ---

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Messages of
// unexpected errors are not echoed to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, ledger.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		status, msg = http.StatusConflict, "insufficient balance"
	case errors.Is(err, ledger.ErrDuplicateReference):
		status, msg = http.StatusConflict, "duplicate reference"
	case errors.Is(err, ledger.ErrAlreadyProcessed):
		status, msg = http.StatusConflict, "transaction already processed"
	case errors.Is(err, gateway.ErrGatewayUnavailable):
		status, msg = http.StatusServiceUnavailable, "payment gateway unavailable, try again"
	case errors.Is(err, gateway.ErrGatewayRejected):
		status, msg = http.StatusBadGateway, "payment gateway rejected the request"
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	writeError(w, status, msg)
}

// decodeBody reads a size-capped JSON body and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}

	return true
}

// --- Views ---

type walletView struct {
	ID                  string `json:"walletId"`
	UserID              string `json:"userId"`
	Currency            string `json:"currency"`
	Balance             string `json:"balance"`
	AvailableBalance    string `json:"availableBalance"`
	PendingBalance      string `json:"pendingBalance"`
	PendingTransactions int    `json:"pendingTransactions"`
}

func newWalletView(w ledger.Wallet, pending int) walletView {
	return walletView{
		ID:                  w.ID,
		UserID:              w.UserID,
		Currency:            w.Currency,
		Balance:             ledger.FormatAmount(w.Balance),
		AvailableBalance:    ledger.FormatAmount(w.AvailableBalance),
		PendingBalance:      ledger.FormatAmount(w.PendingBalance),
		PendingTransactions: pending,
	}
}

type transactionView struct {
	ID           string           `json:"id"`
	WalletID     string           `json:"walletId"`
	UserID       string           `json:"userId"`
	Type         ledger.Type      `json:"type"`
	Direction    ledger.Direction `json:"direction"`
	Status       ledger.Status    `json:"status"`
	Amount       string           `json:"amount"`
	AmountMinor  int64            `json:"amountMinor"`
	Reference    string           `json:"reference"`
	Description  string           `json:"description,omitempty"`
	Metadata     ledger.Metadata  `json:"metadata,omitempty"`
	PropertyID   string           `json:"propertyId,omitempty"`
	InvestmentID string           `json:"investmentId,omitempty"`
	ListingID    string           `json:"listingId,omitempty"`
	RecipientID  string           `json:"recipientId,omitempty"`
	SenderID     string           `json:"senderId,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	SettledAt    *time.Time       `json:"settledAt,omitempty"`
}

func newTransactionView(t ledger.Transaction) transactionView {
	return transactionView{
		ID:           t.ID,
		WalletID:     t.WalletID,
		UserID:       t.UserID,
		Type:         t.Type,
		Direction:    t.Direction,
		Status:       t.Status,
		Amount:       ledger.FormatAmount(t.Amount),
		AmountMinor:  t.Amount,
		Reference:    t.Reference,
		Description:  t.Description,
		Metadata:     t.Metadata,
		PropertyID:   t.PropertyID,
		InvestmentID: t.InvestmentID,
		ListingID:    t.ListingID,
		RecipientID:  t.RecipientID,
		SenderID:     t.SenderID,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		SettledAt:    t.SettledAt,
	}
}

func newTransactionViews(ts []ledger.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, newTransactionView(t))
	}
	return out
}

type pageView struct {
	Items  []transactionView `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}
