// Package redis builds the shared go-redis client and exports its pool stats.
package redis

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"f2f-cri/internal/platform/config"
)

// PoolMetrics mirrors go-redis pool counters into Prometheus.
type PoolMetrics struct {
	Hits       prometheus.Counter
	Misses     prometheus.Counter
	Timeouts   prometheus.Counter
	StaleConns prometheus.Counter
	TotalConns prometheus.Gauge
	IdleConns  prometheus.Gauge
}

// NewPoolMetrics registers the pool collectors on reg.
func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	m := &PoolMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "f2f_redis_pool_hits_total",
			Help: "Number of times a connection was found in the pool",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "f2f_redis_pool_misses_total",
			Help: "Number of times a connection was not found in the pool",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "f2f_redis_pool_timeouts_total",
			Help: "Number of times a connection was not obtained due to timeout",
		}),
		StaleConns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "f2f_redis_pool_stale_conns_total",
			Help: "Number of stale connections removed from the pool",
		}),
		TotalConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "f2f_redis_pool_total_conns",
			Help: "Number of total connections in the pool",
		}),
		IdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "f2f_redis_pool_idle_conns",
			Help: "Number of idle connections in the pool",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Timeouts, m.StaleConns, m.TotalConns, m.IdleConns)
	}
	return m
}

// Client wraps the go-redis client with readiness checks.
type Client struct {
	*redis.Client
	metrics   *PoolMetrics
	lastStats *redis.PoolStats
}

// New creates a client from cfg and pings it. Returns nil when REDIS_URL is empty.
func New(ctx context.Context, cfg config.Redis, metrics *PoolMetrics) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client, metrics: metrics}, nil
}

// Check is the readiness probe for Redis.
func (c *Client) Check(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RecordPoolStats pushes the current pool stats into the collectors.
// Counters advance by the delta since the previous call.
func (c *Client) RecordPoolStats() {
	if c.metrics == nil {
		return
	}
	stats := c.PoolStats()

	c.metrics.TotalConns.Set(float64(stats.TotalConns))
	c.metrics.IdleConns.Set(float64(stats.IdleConns))

	var prev redis.PoolStats
	if c.lastStats != nil {
		prev = *c.lastStats
	}
	addDelta(c.metrics.Hits, stats.Hits, prev.Hits)
	addDelta(c.metrics.Misses, stats.Misses, prev.Misses)
	addDelta(c.metrics.Timeouts, stats.Timeouts, prev.Timeouts)
	addDelta(c.metrics.StaleConns, stats.StaleConns, prev.StaleConns)

	c.lastStats = stats
}

func addDelta(c prometheus.Counter, cur, prev uint32) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}
