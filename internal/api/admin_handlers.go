package api

import (
	"net/http"
	"time"

	"github.com/fastprodman/walletledger/internal/ledger"
	"github.com/fastprodman/walletledger/internal/services/wallet"
	"github.com/go-chi/chi/v5"
)

const (
	defaultStaleAge   = 30 * time.Minute
	defaultStaleLimit = 100
)

// AdminListTransactionsHandler handles GET /admin/transactions
func (h *HandlerProvider) AdminListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.UserID = r.URL.Query().Get("userId")

	page, err := h.wallets.AllTransactions(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageView{
		Items: newTransactionViews(page.Items), Total: page.Total, Limit: page.Limit, Offset: page.Offset,
	})
}

// AdminStaleHandler handles GET /admin/transactions/stale?olderThan=30m&limit=100
func (h *HandlerProvider) AdminStaleHandler(w http.ResponseWriter, r *http.Request) {
	age := defaultStaleAge
	if raw := r.URL.Query().Get("olderThan"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid olderThan")
			return
		}
		age = d
	}

	limit, err := parseInt(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 {
		limit = defaultStaleLimit
	}

	stale, err := h.reconciler.Stale(r.Context(), age, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	review, err := h.reconciler.AwaitingReview(r.Context(), age, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"olderThan":      age.String(),
		"items":          newTransactionViews(stale),
		"awaitingReview": newTransactionViews(review),
	})
}

type reviewRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// AdminReviewHandler handles PUT /admin/transactions/{id}
func (h *HandlerProvider) AdminReviewHandler(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())

	var req reviewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t, err := h.wallets.Review(r.Context(), wallet.ReviewRequest{
		AdminID:       c.UserID,
		TransactionID: chi.URLParam(r, "id"),
		Status:        ledger.Status(req.Status),
		Reason:        req.Reason,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionView(t))
}

// AdminRemoveWalletHandler handles DELETE /admin/wallets/{userId}, called
// when the owning user account is deleted.
func (h *HandlerProvider) AdminRemoveWalletHandler(w http.ResponseWriter, r *http.Request) {
	err := h.wallets.RemoveForUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
