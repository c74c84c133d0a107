package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a point-in-time copy of the pgxpool counters exported as metrics.
type PoolStats struct {
	Acquired, Idle, Total, Max, Constructing float64
	AcquireCount, AcquireSeconds             float64
	CanceledAcquires, EmptyAcquires          float64
	NewConns                                 float64
}

func statsOf(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:         float64(s.AcquiredConns()),
			Idle:             float64(s.IdleConns()),
			Total:            float64(s.TotalConns()),
			Max:              float64(s.MaxConns()),
			Constructing:     float64(s.ConstructingConns()),
			AcquireCount:     float64(s.AcquireCount()),
			AcquireSeconds:   s.AcquireDuration().Seconds(),
			CanceledAcquires: float64(s.CanceledAcquireCount()),
			EmptyAcquires:    float64(s.EmptyAcquireCount()),
			NewConns:         float64(s.NewConnsCount()),
		}
	}
}

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolStats) float64
}

// PoolStatsCollector exports connection pool statistics on scrape.
type PoolStatsCollector struct {
	service string
	source  func() PoolStats
	metrics []poolMetric
}

// NewPoolStatsCollector returns a collector reading stats from pool.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return newPoolStatsCollector(statsOf(pool), service)
}

func newPoolStatsCollector(source func() PoolStats, service string) *PoolStatsCollector {
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue
	def := func(name, help string, kind prometheus.ValueType, v func(PoolStats) float64) poolMetric {
		return poolMetric{
			desc:  prometheus.NewDesc("db_pool_"+name, help, []string{"service"}, nil),
			kind:  kind,
			value: v,
		}
	}
	return &PoolStatsCollector{
		service: service,
		source:  source,
		metrics: []poolMetric{
			def("acquired_connections", "Connections currently acquired", gauge, func(s PoolStats) float64 { return s.Acquired }),
			def("idle_connections", "Connections currently idle", gauge, func(s PoolStats) float64 { return s.Idle }),
			def("total_connections", "Connections in the pool", gauge, func(s PoolStats) float64 { return s.Total }),
			def("max_connections", "Maximum pool size", gauge, func(s PoolStats) float64 { return s.Max }),
			def("constructing_connections", "Connections being established", gauge, func(s PoolStats) float64 { return s.Constructing }),
			def("acquire_count_total", "Successful acquires", counter, func(s PoolStats) float64 { return s.AcquireCount }),
			def("acquire_duration_seconds_total", "Time spent acquiring connections", counter, func(s PoolStats) float64 { return s.AcquireSeconds }),
			def("canceled_acquire_count_total", "Acquires canceled by context", counter, func(s PoolStats) float64 { return s.CanceledAcquires }),
			def("empty_acquire_count_total", "Acquires that waited for a connection", counter, func(s PoolStats) float64 { return s.EmptyAcquires }),
			def("new_connections_total", "Connections opened", counter, func(s PoolStats) float64 { return s.NewConns }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stats), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
