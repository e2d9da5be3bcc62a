// Command factorarenad runs the unified mining orchestrator, the
// meta-miner, and the Spartan Arena validator on a cron schedule: mine
// factors in parallel across all registered miner kinds, let the
// meta-miner observe every run for regime detection and recommendation,
// and on every tick run the four-layer gauntlet over the loaded price
// series' returns, logging the overall score and pass flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/r3e-network/factor-arena/applications/arena"
	"github.com/r3e-network/factor-arena/applications/datafeed"
	"github.com/r3e-network/factor-arena/applications/metaminer"
	"github.com/r3e-network/factor-arena/applications/orchestrator"
	"github.com/r3e-network/factor-arena/applications/scheduler"
	"github.com/r3e-network/factor-arena/applications/system"
	"github.com/r3e-network/factor-arena/domain/mining"
	"github.com/r3e-network/factor-arena/domain/mining/miners"
	"github.com/r3e-network/factor-arena/infrastructure/auditlog"
	"github.com/r3e-network/factor-arena/infrastructure/config"
	"github.com/r3e-network/factor-arena/infrastructure/logging"
	"github.com/r3e-network/factor-arena/infrastructure/metrics"
)

func main() {
	_ = godotenv.Load()

	priceDataPath := flag.String("price-data", "", "path to a CSV file of historical price_data (required)")
	cronSpec := flag.String("cron", "0 */15 * * * *", "cron expression (6-field, with seconds) for mine_parallel ticks")
	marketType := flag.String("market", string(arena.MarketAStock), "market type for arena certification: a_stock, futures, or crypto")
	flag.Parse()

	log := logging.NewFromEnv("factor-arena")

	if *priceDataPath == "" {
		log.Fatal("--price-data is required")
	}

	data, err := datafeed.LoadPriceSeries(*priceDataPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load price data")
	}
	returns := datafeed.DeriveReturns(data)

	m := metrics.Init("factor-arena")

	auditLogger, err := auditlog.New()
	if err != nil {
		log.WithError(err).Warn("audit logger unavailable, falling back to no-op")
		auditLogger = auditlog.NewNop()
	}
	defer auditLogger.Sync()

	orch := orchestrator.New(config.DefaultOrchestratorConfig(), log, m, auditLogger)
	for kind, miner := range miners.BuildStandardMiners(log) {
		if err := orch.Miners.Register(miner); err != nil {
			log.WithError(err).WithField("kind", string(kind)).Fatal("failed to register miner")
		}
	}

	meta := metaminer.New(config.DefaultMetaMinerConfig(), log)
	if err := orch.Miners.Register(meta); err != nil {
		log.WithError(err).Fatal("failed to register meta-miner")
	}
	orch.AddObserver(meta)

	arenaCfg := config.DefaultArenaConfig()
	validator := arena.New(arenaCfg, nil, nil)

	sched := scheduler.New(log)
	if _, err := sched.AddMiningJob(*cronSpec, func(ctx context.Context) ([]mining.MiningResult, error) {
		results, err := orch.MineParallel(ctx, data, returns, mining.MineOptions{})
		if err != nil {
			return results, err
		}

		report := validator.Evaluate(arena.Input{
			Strategy:   "unified-mining-run",
			MarketType: arena.MarketType(*marketType),
			Returns:    returns,
			Freq:       arenaCfg.Freq,
		})
		log.WithFields(map[string]interface{}{
			"certification": string(report.Certification),
			"overall_score": report.OverallScore,
			"passed":        report.Passed,
		}).Info("arena certification run completed")

		return results, nil
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule mining job")
	}

	metricsPort := config.GetPort("factor-arena", 9090)
	metricsSrv := &http.Server{
		Addr:    ":" + strconv.Itoa(metricsPort),
		Handler: promhttp.Handler(),
	}

	mgr := system.NewManager()
	if err := mgr.Register(metricsServerService{srv: metricsSrv, log: log}); err != nil {
		log.WithError(err).Fatal("failed to register metrics server")
	}
	if err := mgr.Register(schedulerService{sched: sched}); err != nil {
		log.WithError(err).Fatal("failed to register scheduler service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start services")
	}
	log.WithField("cron", *cronSpec).Info("factor-arena daemon started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := mgr.Stop(stopCtx); err != nil {
		log.WithError(err).Error("failed to stop services cleanly")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "factor-arena daemon stopped")
}

// schedulerService adapts scheduler.Scheduler to applications/system.Service.
type schedulerService struct {
	sched *scheduler.Scheduler
}

func (schedulerService) Name() string { return "scheduler" }

func (s schedulerService) Start(ctx context.Context) error {
	s.sched.Start()
	return nil
}

func (s schedulerService) Stop(ctx context.Context) error {
	return s.sched.Stop(ctx)
}

// metricsServerService adapts an *http.Server exposing /metrics to
// applications/system.Service.
type metricsServerService struct {
	srv *http.Server
	log *logging.Logger
}

func (metricsServerService) Name() string { return "metrics-server" }

func (s metricsServerService) Start(ctx context.Context) error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("metrics server stopped unexpectedly")
		}
	}()
	return nil
}

func (s metricsServerService) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
