package api

import (
	"io"
	"net/http"

	"github.com/fastprodman/walletledger/internal/gateway/paystack"
	"go.uber.org/zap"
)

// WebhookHandler handles POST /webhooks/gateway. It always answers 200 so
// the gateway does not pile up retries; the outcome only reaches the logs.
func (h *HandlerProvider) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		zap.L().Warn("webhook body unreadable", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	d := h.webhooks.Handle(r.Context(), body, r.Header.Get(paystack.SignatureHeader))
	zap.L().Debug("webhook received", zap.String("disposition", string(d)))

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
