package watch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const namespace = "prediction_scope"

// Metrics holds the watcher's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Reserve     *prometheus.GaugeVec
	Price       *prometheus.GaugeVec
	Drift       *prometheus.GaugeVec
	SumMismatch *prometheus.GaugeVec
	LastBlock   *prometheus.GaugeVec
	Polls       *prometheus.CounterVec
}

// NewMetrics creates and registers the watcher metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Reserve: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "reserve",
				Help:      "Pool reserve in the token's smallest unit",
			},
			[]string{"pool_id", "side"},
		),
		Price: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "price",
				Help:      "Outcome price as a fraction of 1",
			},
			[]string{"pool_id", "side", "source"},
		),
		Drift: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "price_drift",
				Help:      "1 when the engine price differs from the hook price beyond tolerance",
			},
			[]string{"pool_id"},
		),
		SumMismatch: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "sum_mismatch",
				Help:      "1 when reserve0 + reserve1 differs from reported liquidity",
			},
			[]string{"pool_id"},
		),
		LastBlock: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "last_block",
				Help:      "Block number of the latest successful poll",
			},
			[]string{"pool_id"},
		),
		Polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watch",
				Name:      "polls_total",
				Help:      "Pool polls by outcome",
			},
			[]string{"pool_id", "status"},
		),
	}
}

// Observe records a successful poll.
func (m *Metrics) Observe(obs Observation) {
	id := obs.Snapshot.PoolID
	r0 := decimal.NewFromBigInt(obs.Reserves.Reserve0, 0).InexactFloat64()
	r1 := decimal.NewFromBigInt(obs.Reserves.Reserve1, 0).InexactFloat64()
	m.Reserve.WithLabelValues(id, "0").Set(r0)
	m.Reserve.WithLabelValues(id, "1").Set(r1)

	m.Price.WithLabelValues(id, "0", "engine").Set(obs.Price0.InexactFloat64())
	m.Price.WithLabelValues(id, "1", "engine").Set(obs.Price1.InexactFloat64())
	m.Price.WithLabelValues(id, "0", "hook").Set(obs.HookPrice0.InexactFloat64())
	m.Price.WithLabelValues(id, "1", "hook").Set(obs.HookPrice1.InexactFloat64())

	m.Drift.WithLabelValues(id).Set(boolGauge(obs.Snapshot.Drift))
	m.SumMismatch.WithLabelValues(id).Set(boolGauge(obs.Snapshot.SumMismatch))
	m.LastBlock.WithLabelValues(id).Set(float64(obs.Snapshot.BlockNumber))
	m.Polls.WithLabelValues(id, "ok").Inc()
}

// PollFailed counts a failed poll.
func (m *Metrics) PollFailed(poolID string) {
	m.Polls.WithLabelValues(poolID, "error").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
