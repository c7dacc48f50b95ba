package e2etests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout   = 5 * time.Second
	waitReady = 20 * time.Second
)

var httpClient = &http.Client{Timeout: timeout}

// env is read once per test; E2E_BASE_URL must point at a running api with
// JWT_SECRET equal to E2E_JWT_SECRET.
type env struct {
	baseURL string
	secret  string
}

func setup(t *testing.T) env {
	t.Helper()

	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		t.Skip("E2E_BASE_URL not set")
	}

	e := env{baseURL: base, secret: os.Getenv("E2E_JWT_SECRET")}
	waitUntilReady(t, e)

	return e
}

func TestE2E_WalletFlow(t *testing.T) {
	e := setup(t)

	user := uniqID("e2e-user")
	tok := e.token(t, user, "")

	t.Run("new_wallet_is_empty", func(t *testing.T) {
		code, body := e.do(t, http.MethodGet, "/wallet", tok, nil)
		require.Equal(t, http.StatusOK, code, body)

		var w struct {
			UserID           string `json:"userId"`
			Balance          string `json:"balance"`
			AvailableBalance string `json:"availableBalance"`
			PendingBalance   string `json:"pendingBalance"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &w))

		assert.Equal(t, user, w.UserID)
		assert.Equal(t, "0.00", w.Balance)
		assert.Equal(t, "0.00", w.AvailableBalance)
		assert.Equal(t, "0.00", w.PendingBalance)
	})

	t.Run("withdraw_without_funds_conflicts", func(t *testing.T) {
		code, body := e.do(t, http.MethodPost, "/wallet/withdraw", tok, map[string]string{
			"amount":        "10.00",
			"bankCode":      "058",
			"accountNumber": "0123456789",
			"accountName":   "E2E User",
		})
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("transfer_without_funds_conflicts", func(t *testing.T) {
		code, body := e.do(t, http.MethodPost, "/wallet/transfer", tok, map[string]string{
			"recipientId": uniqID("e2e-recipient"),
			"amount":      "1.00",
		})
		assert.Equal(t, http.StatusConflict, code, body)
	})

	t.Run("history_is_empty", func(t *testing.T) {
		code, body := e.do(t, http.MethodGet, "/wallet/transactions?limit=5", tok, nil)
		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"total":0`)
	})
}

func TestE2E_Validation(t *testing.T) {
	e := setup(t)

	user := uniqID("e2e-user")
	tok := e.token(t, user, "")

	t.Run("self_transfer", func(t *testing.T) {
		code, _ := e.do(t, http.MethodPost, "/wallet/transfer", tok, map[string]string{
			"recipientId": user,
			"amount":      "1.00",
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("amount_precision", func(t *testing.T) {
		code, _ := e.do(t, http.MethodPost, "/wallet/fund", tok, map[string]string{"amount": "1.234"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown_payment_type", func(t *testing.T) {
		code, _ := e.do(t, http.MethodPost, "/wallet/payments", tok, map[string]string{
			"type": "LOTTERY", "source": "wallet", "amount": "1.00",
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("missing_token", func(t *testing.T) {
		code, _ := e.do(t, http.MethodGet, "/wallet", "", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("admin_only", func(t *testing.T) {
		code, _ := e.do(t, http.MethodGet, "/admin/transactions", tok, nil)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("unsigned_webhook_acknowledged", func(t *testing.T) {
		code, _ := e.do(t, http.MethodPost, "/webhooks/gateway", "", map[string]any{
			"event": "charge.success",
			"data":  map[string]any{"reference": "fund_does_not_exist", "status": "success"},
		})
		assert.Equal(t, http.StatusOK, code)
	})
}

/* -------------------- helpers -------------------- */

func (e env) token(t *testing.T, uid, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	if iss := os.Getenv("E2E_JWT_ISSUER"); iss != "" {
		claims["iss"] = iss
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(e.secret))
	require.NoError(t, err)

	return tok
}

func (e env) do(t *testing.T, method, path, token string, body any) (int, string) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.baseURL+path, rdr)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)

	return resp.StatusCode, string(b)
}

// waitUntilReady polls /healthz until it answers 200 or times out.
func waitUntilReady(t *testing.T, e env) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitReady)
	defer cancel()

	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("service not ready at %s within %s", e.baseURL, waitReady)
		case <-tick.C:
			resp, err := httpClient.Get(e.baseURL + "/healthz")
			if err != nil {
				continue
			}
			_ = resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				return
			}
		}
	}
}

func uniqID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
