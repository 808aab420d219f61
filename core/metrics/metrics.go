// Package metrics owns the prometheus collectors exported by the bot and the
// optional HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/relaybot/core/logger"
)

const namespace = "relaybot"

var (
	registry = prometheus.NewRegistry()

	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Telegram updates received, by kind.",
	}, []string{"kind"})

	handlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent in update handlers.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"handler", "status"})

	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Updates waiting in the per-sender dispatch queues.",
	})

	relayActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_actions_total",
		Help:      "Relay routes handled, by route and outcome.",
	}, []string{"route", "outcome"})

	bannedSenders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "banned_senders",
		Help:      "Senders currently in the banned set.",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		updatesTotal,
		handlerDuration,
		rateLimited,
		queueDepth,
		relayActions,
		bannedSenders,
	)
}

// Registry returns the gatherer backing the endpoint; tests read from it.
func Registry() *prometheus.Registry { return registry }

// IncUpdate counts one received update of the given kind.
func IncUpdate(kind string) { updatesTotal.WithLabelValues(kind).Inc() }

// ObserveHandler records the duration of one handler run.
func ObserveHandler(handler, status string, d time.Duration) {
	handlerDuration.WithLabelValues(handler, status).Observe(d.Seconds())
}

// IncRateLimited counts one update dropped by the rate limiter.
func IncRateLimited() { rateLimited.Inc() }

// AddQueueDepth moves the dispatch queue gauge by delta.
func AddQueueDepth(delta int) { queueDepth.Add(float64(delta)) }

// IncRelayAction counts one routed relay event.
func IncRelayAction(route, outcome string) { relayActions.WithLabelValues(route, outcome).Inc() }

// SetBanned publishes the current size of the banned set.
func SetBanned(n int) { bannedSenders.Set(float64(n)) }

// Serve exposes the registry on listen+path until ctx is done.
func Serve(ctx context.Context, listen, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "metrics", "metrics.listen",
			slog.String("listen", listen),
			slog.String("path", path),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error(ctx, "metrics", "metrics.listen",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
}
