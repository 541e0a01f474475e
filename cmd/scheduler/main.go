package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"salescrm_backend/internal/events"
	"salescrm_backend/internal/leads"
	"salescrm_backend/internal/metrics"
	"salescrm_backend/internal/scheduler"
	"salescrm_backend/platform/config"
	"salescrm_backend/platform/db"
	platformevents "salescrm_backend/platform/events"
	"salescrm_backend/platform/logger"
	"salescrm_backend/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := platformevents.NewInMemoryBus(log)
	defer eventBus.Wait()
	events.NewJournal(log).Register(eventBus)

	appMetrics := metrics.New(prometheus.NewRegistry())
	leadsModule := leads.NewModule(pool, eventBus, validator.New(), appMetrics, cfg, log)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	reclaimer := scheduler.NewPoolReclaimer(leadsModule.Settings(), leadsModule.Repository(), client, scheduler.PoolReclaimerOptions{
		Interval: cfg.GetPoolReclaimInterval(),
		Batch:    cfg.GetPoolReclaimBatch(),
		Observer: appMetrics,
	}, log)

	worker, err := scheduler.NewWorker(cfg, leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return reclaimer.Run(gctx) })
	g.Go(func() error { return worker.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		panic("scheduler stopped: " + err.Error())
	}
	log.Info("scheduler stopped")
}
