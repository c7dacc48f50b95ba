package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter registers every endpoint on a chi router.
func NewRouter(h *HandlerProvider, auth *Authenticator, origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(25 * time.Second))

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/gateway", h.WebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.GetWalletHandler)
			r.Get("/transactions", h.ListTransactionsHandler)
			r.Get("/transactions/{id}", h.GetTransactionHandler)
			r.Post("/fund", h.FundHandler)
			r.Post("/withdraw", h.WithdrawHandler)
			r.Post("/transfer", h.TransferHandler)
			r.Post("/payments", h.PaymentHandler)
			r.Get("/verify/{reference}", h.VerifyHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/transactions", h.AdminListTransactionsHandler)
			r.Get("/transactions/stale", h.AdminStaleHandler)
			r.Put("/transactions/{id}", h.AdminReviewHandler)
			r.Delete("/wallets/{userId}", h.AdminRemoveWalletHandler)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		zap.L().Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(started)))
	})
}
