package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/services/transfer"
	"github.com/fastprodman/walletledger/internal/services/wallet"
	"github.com/go-chi/chi/v5"
)

// parseFilter reads type, status, from, to (RFC 3339 or YYYY-MM-DD), limit
// and offset query parameters.
func parseFilter(q url.Values) (ledger.Filter, error) {
	f := ledger.Filter{
		Type:   ledger.Type(q.Get("type")),
		Status: ledger.Status(q.Get("status")),
	}

	var err error

	f.From, err = parseTime(q.Get("from"))
	if err != nil {
		return ledger.Filter{}, fmt.Errorf("from: %w", err)
	}

	f.To, err = parseTime(q.Get("to"))
	if err != nil {
		return ledger.Filter{}, fmt.Errorf("to: %w", err)
	}

	f.Limit, err = parseInt(q.Get("limit"))
	if err != nil {
		return ledger.Filter{}, fmt.Errorf("limit: %w", err)
	}

	f.Offset, err = parseInt(q.Get("offset"))
	if err != nil {
		return ledger.Filter{}, fmt.Errorf("offset: %w", err)
	}

	return f, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, s)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", s)
	}

	return n, nil
}

// GetWalletHandler handles GET /wallet
func (h *HandlerProvider) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	sum, err := h.wallets.Get(r.Context(), c.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newWalletView(sum.Wallet, sum.PendingCount))
}

// ListTransactionsHandler handles GET /wallet/transactions
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.wallets.Transactions(r.Context(), c.UserID, f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageView{
		Items: newTransactionViews(page.Items), Total: page.Total, Limit: page.Limit, Offset: page.Offset,
	})
}

// GetTransactionHandler handles GET /wallet/transactions/{id}
func (h *HandlerProvider) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	t, err := h.wallets.Transaction(r.Context(), c.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionView(t))
}

type fundRequest struct {
	Amount      string `json:"amount"`
	Email       string `json:"email"`
	CallbackURL string `json:"callbackUrl"`
}

type initiatedView struct {
	Transaction transactionView `json:"transaction"`
	CheckoutURL string          `json:"checkoutUrl,omitempty"`
	AccessCode  string          `json:"accessCode,omitempty"`
}

// FundHandler handles POST /wallet/fund
func (h *HandlerProvider) FundHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	var req fundRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out, err := h.wallets.Fund(r.Context(), wallet.FundRequest{
		UserID:      c.UserID,
		Email:       withDefault(req.Email, c.Email),
		Amount:      amount,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiatedView{
		Transaction: newTransactionView(out.Transaction),
		CheckoutURL: out.CheckoutURL,
		AccessCode:  out.AccessCode,
	})
}

type withdrawRequest struct {
	Amount        string `json:"amount"`
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
	Note          string `json:"note"`
}

// WithdrawHandler handles POST /wallet/withdraw
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t, wal, err := h.wallets.Withdraw(r.Context(), wallet.WithdrawRequest{
		UserID: c.UserID,
		Amount: amount,
		Bank: wallet.BankAccount{
			BankCode:      req.BankCode,
			AccountNumber: req.AccountNumber,
			AccountName:   req.AccountName,
		},
		Note: req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": newTransactionView(t),
		"wallet":      newWalletView(wal, 0),
	})
}

type transferRequest struct {
	RecipientID string `json:"recipientId"`
	Amount      string `json:"amount"`
	Note        string `json:"note"`
}

// TransferHandler handles POST /wallet/transfer
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := h.transfers.Transfer(r.Context(), transfer.Request{
		SenderID:    c.UserID,
		RecipientID: req.RecipientID,
		Amount:      amount,
		Note:        req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"reference": res.Reference,
		"sender":    newTransactionView(res.Sender),
		"recipient": newTransactionView(res.Recipient),
	})
}

type paymentRequest struct {
	Type         string `json:"type"`
	Source       string `json:"source"`
	Amount       string `json:"amount"`
	PropertyID   string `json:"propertyId"`
	ListingID    string `json:"listingId"`
	InvestmentID string `json:"investmentId"`
	Email        string `json:"email"`
	CallbackURL  string `json:"callbackUrl"`
}

// PaymentHandler handles POST /wallet/payments
func (h *HandlerProvider) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	var req paymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out, err := h.wallets.Pay(r.Context(), wallet.PaymentRequest{
		UserID:       c.UserID,
		Email:        withDefault(req.Email, c.Email),
		Type:         ledger.Type(req.Type),
		Source:       wallet.Source(req.Source),
		Amount:       amount,
		PropertyID:   req.PropertyID,
		ListingID:    req.ListingID,
		InvestmentID: req.InvestmentID,
		CallbackURL:  req.CallbackURL,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiatedView{
		Transaction: newTransactionView(out.Transaction),
		CheckoutURL: out.CheckoutURL,
		AccessCode:  out.AccessCode,
	})
}

// VerifyHandler handles GET /wallet/verify/{reference}, the client poll
// path into reconciliation.
func (h *HandlerProvider) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())
	ref := chi.URLParam(r, "reference")

	_, err := h.wallets.TransactionByReference(r.Context(), c.UserID, ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := h.reconciler.Reconcile(r.Context(), ref)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"outcome":     res.Outcome,
		"transaction": newTransactionView(res.Transaction),
	})
}

func withDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
