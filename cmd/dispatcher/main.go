package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dispatch-sim/internal/api"
	"dispatch-sim/internal/checkpoint"
	"dispatch-sim/internal/config"
	"dispatch-sim/internal/db"
	"dispatch-sim/internal/eta"
	"dispatch-sim/internal/metrics"
	"dispatch-sim/internal/proximity"
	"dispatch-sim/internal/publisher"
	"dispatch-sim/internal/sim"
	"dispatch-sim/internal/store"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres providers: hospitals and traffic signals
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	hospitals, err := db.FetchHospitals(ctx, sqlDB)
	if err != nil {
		log.Fatalf("fetch hospitals error: %v", err)
	}
	if len(hospitals) == 0 {
		log.Printf("no hospitals on record; dispatch requests will fail until some are loaded")
	}
	signals, err := db.FetchTrafficSignals(ctx, sqlDB)
	if err != nil {
		log.Fatalf("fetch traffic signals error: %v", err)
	}
	log.Printf("loaded %d hospitals, %d traffic signals", len(hospitals), len(signals))

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.StepMin, cfg.StepMax, cfg.RefreshInterval)
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// NATS publisher for positions and notification events
	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	// SQLite notification log
	repo, err := store.NewNotificationStore(cfg.NotifyDBPath)
	if err != nil {
		log.Fatalf("notification store error: %v", err)
	}
	defer repo.Close()

	// Checkpoint generator with a pinned or time-based seed
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	estimator := eta.New(cfg.ETAModel)
	gen := checkpoint.NewGenerator(cfg.CheckpointKm, estimator, rand.New(rand.NewSource(seed)), func() time.Time {
		return time.Now().In(cfg.Location)
	})

	mgr := sim.NewManager(sim.ManagerConfig{
		BaseContext:     ctx,
		Generator:       gen,
		MinStep:         cfg.StepMin,
		MaxStep:         cfg.StepMax,
		RefreshInterval: cfg.RefreshInterval,
		PrepSteps:       cfg.PrepSteps,
		Publisher:       pub,
		Sink:            proximity.MultiSink(pub, repo),
		Metrics:         mcol,
		Signals:         signals,
	})
	mgr.StartRefresher(ctx)

	// Dashboard API
	apiSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewServer(mgr, repo, hospitals).Router(),
	}
	go func() {
		log.Printf("api listening on %s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	// Block until context cancelled
	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	mgr.Stop()
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NotificationPublishedInc()      { p.c.NotificationsPublished.Inc() }
func (p *pubMetrics) NotificationErrInc()            { p.c.NotificationErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) SetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
