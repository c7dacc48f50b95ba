package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/walletledger/internal/api"
	"github.com/fastprodman/walletledger/internal/events"
	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/gateway/paystack"
	"github.com/fastprodman/walletledger/internal/infra/logging"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	"github.com/fastprodman/walletledger/internal/infra/redisutil"
	txrepo "github.com/fastprodman/walletledger/internal/repos/transactions/postgres"
	walletrepo "github.com/fastprodman/walletledger/internal/repos/wallets/postgres"
	"github.com/fastprodman/walletledger/internal/services/payout"
	"github.com/fastprodman/walletledger/internal/services/reconcile"
	"github.com/fastprodman/walletledger/internal/services/transfer"
	"github.com/fastprodman/walletledger/internal/services/txledger"
	"github.com/fastprodman/walletledger/internal/services/wallet"
	"github.com/fastprodman/walletledger/internal/services/webhook"
	"github.com/fastprodman/walletledger/pkg/envconf"
	"github.com/fastprodman/walletledger/pkg/shutdownqueue"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

//nolint:funlen
func run(ctx context.Context) (retErr error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	flush, err := logging.SetupJSON(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer flush()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	rdb, err := redisutil.Open(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}

	dedupe := webhook.NoDedupe()
	if rdb != nil {
		dedupe = webhook.NewRedisDeduper(rdb, cfg.Webhook.DedupeTTL)

		shutdownqueue.Add("redis", func(context.Context) error {
			return rdb.Close()
		})
	} else {
		zap.L().Warn("REDIS_ADDR not set; webhook deliveries are not deduplicated")
	}

	var pub events.Publisher = events.Nop()
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafka(cfg.Kafka)

		shutdownqueue.Add("kafka", func(context.Context) error {
			return pub.Close()
		})
	}

	gw := gateway.Instrument(paystack.New(cfg.Gateway))

	// --- Services ---
	ledger := txledger.New(walletrepo.New(), txrepo.New())
	payouts := payout.NewRegistry()

	reconciler := reconcile.New(db, ledger, gw, payouts, pub)
	wallets := wallet.New(db, ledger, gw, payouts, pub)
	transfers := transfer.New(db, ledger, pub)
	hooks := webhook.New(cfg.Webhook, reconciler, dedupe)

	// --- HTTP server ---
	handler := api.NewHandler(wallets, transfers, reconciler, hooks)
	router := api.NewRouter(handler, api.NewAuthenticator(cfg.Auth), cfg.CORSOrigins)
	srv := api.NewServer(cfg.Port, router)

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)

	workersDone := make(chan struct{})

	g.Go(func() error {
		defer close(workersDone)
		return hooks.Run(workerCtx)
	})

	g.Go(func() error {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	})

	// Workers stop after the server so in-flight webhook intake is drained.
	shutdownqueue.Add("webhook workers", func(c context.Context) error {
		stopWorkers()

		select {
		case <-workersDone:
			return nil
		case <-c.Done():
			return fmt.Errorf("wait webhook workers: %w", c.Err())
		}
	})

	shutdownqueue.Add("http server", func(c context.Context) error {
		zap.L().Info("shutting down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	zap.L().Info("API started", zap.Uint16("port", cfg.Port))

	<-gctx.Done()

	// On a signal the deferred queue drains everything; otherwise the
	// server died and its error is reported once the workers stop.
	if ctx.Err() != nil {
		return nil
	}

	stopWorkers()

	return g.Wait()
}
