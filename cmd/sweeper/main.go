// Command sweeper re-verifies gateway-backed transactions that have been
// PENDING for too long. It is meant to run from cron; the exit code is
// non-zero when any transaction could not be verified.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fastprodman/walletledger/internal/config"
	"github.com/fastprodman/walletledger/internal/events"
	"github.com/fastprodman/walletledger/internal/gateway"
	"github.com/fastprodman/walletledger/internal/gateway/paystack"
	"github.com/fastprodman/walletledger/internal/infra/logging"
	"github.com/fastprodman/walletledger/internal/infra/pgutils"
	txrepo "github.com/fastprodman/walletledger/internal/repos/transactions/postgres"
	walletrepo "github.com/fastprodman/walletledger/internal/repos/wallets/postgres"
	"github.com/fastprodman/walletledger/internal/services/payout"
	"github.com/fastprodman/walletledger/internal/services/reconcile"
	"github.com/fastprodman/walletledger/internal/services/txledger"
	"github.com/fastprodman/walletledger/pkg/envconf"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var errUnverified = errors.New("some transactions could not be verified")

type sweeperConfig struct {
	LogLevel zapcore.Level `env:"APP_LOG_LEVEL" default:"info"`
	Deadline time.Duration `env:"SWEEP_DEADLINE" default:"5m"`

	Postgres config.PostgresConfig
	Gateway  config.GatewayConfig
	Kafka    config.KafkaConfig
	Sweep    config.SweepConfig
}

type reportView struct {
	Checked      int      `json:"checked"`
	Settled      int      `json:"settled"`
	Failed       int      `json:"failed"`
	Refunded     int      `json:"refunded"`
	StillPending []string `json:"stillPending"`
	// withdrawals waiting on an admin, never verified by the sweep
	AwaitingReview []string          `json:"awaitingReview"`
	Errors         map[string]string `json:"errors,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweep: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg := new(sweeperConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	flush, err := logging.SetupJSON(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer flush()

	ctx, cancel := context.WithTimeout(ctx, cfg.Deadline)
	defer cancel()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	var pub events.Publisher = events.Nop()
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewKafka(cfg.Kafka)
	}
	//nolint:errcheck
	defer pub.Close()

	svc := reconcile.New(db,
		txledger.New(walletrepo.New(), txrepo.New()),
		gateway.Instrument(paystack.New(cfg.Gateway)),
		payout.NewRegistry(),
		pub)

	report, err := svc.Sweep(ctx, cfg.Sweep.OlderThan, cfg.Sweep.Limit)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	view := reportView{
		Checked:        report.Checked,
		Settled:        report.Settled,
		Failed:         report.Failed,
		Refunded:       report.Refunded,
		StillPending:   make([]string, 0, len(report.StillPending)),
		AwaitingReview: make([]string, 0, len(report.AwaitingReview)),
		Errors:         report.Errors,
	}
	for _, t := range report.StillPending {
		view.StillPending = append(view.StillPending, t.Reference)
	}
	for _, t := range report.AwaitingReview {
		view.AwaitingReview = append(view.AwaitingReview, t.Reference)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	err = enc.Encode(view)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if len(report.Errors) > 0 {
		return errUnverified
	}

	return nil
}
