package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type poolStat struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool statistics.
type PoolStatsCollector struct {
	stat    func() *pgxpool.Stat
	service string
	stats   []poolStat
}

// NewPoolStatsCollector creates a collector over pool.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	return newPoolStatsCollector(pool.Stat, service)
}

func newPoolStatsCollector(stat func() *pgxpool.Stat, service string) *PoolStatsCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, []string{"service"}, nil)
	}
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue

	return &PoolStatsCollector{
		stat:    stat,
		service: service,
		stats: []poolStat{
			{desc("db_pool_acquired_connections", "Number of currently acquired connections"), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
			{desc("db_pool_idle_connections", "Number of currently idle connections"), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
			{desc("db_pool_total_connections", "Total number of connections in the pool"), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }},
			{desc("db_pool_max_connections", "Maximum number of connections allowed"), gauge,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
			{desc("db_pool_acquire_count_total", "Total number of connection acquires"), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }},
			{desc("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections in seconds"), counter,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }},
			{desc("db_pool_empty_acquire_count_total", "Total number of acquires that had to wait for a connection"), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }},
			{desc("db_pool_canceled_acquire_count_total", "Total number of canceled connection acquires"), counter,
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }},
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.stat()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, s.value(stat), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
