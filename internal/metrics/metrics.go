package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveDispatches prometheus.Gauge

	DispatchesStarted  prometheus.Counter
	DispatchesFinished prometheus.Counter
	StepsTotal         prometheus.Counter

	StatusTransitions *prometheus.CounterVec // status label

	NotificationsPublished prometheus.Counter
	NotificationErrs       prometheus.Counter
	NATSConnected          prometheus.Gauge

	StepDuration    prometheus.Histogram
	PublishDuration prometheus.Histogram

	StepMinSeconds  prometheus.Gauge
	StepMaxSeconds  prometheus.Gauge
	RefreshInterval prometheus.Gauge // seconds
}

func NewCollector(stepMin, stepMax, refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveDispatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatcher_active_dispatches",
			Help: "1 while an ambulance simulation is in flight.",
		}),
		DispatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_dispatches_started_total",
			Help: "Total dispatches started.",
		}),
		DispatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_dispatches_finished_total",
			Help: "Total dispatches that reached the hospital.",
		}),
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_simulation_steps_total",
			Help: "Total waypoint steps across all dispatches.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatcher_status_transitions_total",
			Help: "Point-of-interest status transitions.",
		}, []string{"status"}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_notifications_published_total",
			Help: "Total notification messages published.",
		}),
		NotificationErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_notification_errors_total",
			Help: "Total notification publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatcher_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatcher_step_duration_seconds",
			Help:    "Duration of simulation step computations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatcher_publish_duration_seconds",
			Help:    "Duration to marshal and publish a position message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		StepMinSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatcher_step_min_seconds",
			Help: "Configured minimum per-segment delay.",
		}),
		StepMaxSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatcher_step_max_seconds",
			Help: "Configured maximum per-segment delay.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatcher_refresh_interval_seconds",
			Help: "Checkpoint refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveDispatches,
		c.DispatchesStarted, c.DispatchesFinished, c.StepsTotal,
		c.StatusTransitions,
		c.NotificationsPublished, c.NotificationErrs, c.NATSConnected,
		c.StepDuration, c.PublishDuration,
		c.StepMinSeconds, c.StepMaxSeconds, c.RefreshInterval,
	)

	c.StepMinSeconds.Set(stepMin.Seconds())
	c.StepMaxSeconds.Set(stepMax.Seconds())
	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
