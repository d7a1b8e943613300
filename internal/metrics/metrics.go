package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"batch-indicators/internal/device"
)

// Metrics holds all Prometheus metrics for the indicator engine.
type Metrics struct {
	// Kernel metrics
	KernelDuration *prometheus.HistogramVec // labels: kernel
	KernelCells    *prometheus.CounterVec   // labels: kernel

	// Memory pool metrics
	PoolBytes     *prometheus.GaugeVec   // labels: pool, state=in_use|cached
	PoolRequests  *prometheus.CounterVec // labels: pool, result=hit|miss|failure
	PoolClears    prometheus.Counter
	AllocFailures prometheus.Counter

	// Refresh loop metrics
	RefreshDuration prometheus.Histogram
	RefreshErrors   prometheus.Counter
	PublishedTotal  prometheus.Counter

	// Circuit breaker metrics
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// last pool counters seen, to turn snapshots into counter deltas
	mu       sync.Mutex
	lastPool map[device.Kind]device.PoolStats
}

// NewMetrics creates all metrics and registers them on reg.
// A nil reg registers on the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		KernelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indengine_kernel_duration_seconds",
			Help:    "Wall time of one batched kernel call including transfers",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kernel"}),
		KernelCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indengine_kernel_cells_total",
			Help: "Matrix cells processed by batched kernels",
		}, []string{"kernel"}),

		PoolBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "indengine_pool_bytes",
			Help: "Memory pool bytes by pool and state",
		}, []string{"pool", "state"}),
		PoolRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indengine_pool_requests_total",
			Help: "Memory pool allocation requests by result",
		}, []string{"pool", "result"}),
		PoolClears: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indengine_pool_clears_total",
			Help: "Explicit memory pool clears",
		}),
		AllocFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indengine_alloc_failures_total",
			Help: "Kernel calls that failed with an out-of-memory error",
		}),

		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indengine_refresh_duration_seconds",
			Help:    "Latency of one load-compute-publish refresh",
			Buckets: prometheus.DefBuckets,
		}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indengine_refresh_errors_total",
			Help: "Refresh iterations that failed",
		}),
		PublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indengine_published_total",
			Help: "Indicator results published",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "indengine_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indengine_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		lastPool: make(map[device.Kind]device.PoolStats),
	}

	reg.MustRegister(
		m.KernelDuration,
		m.KernelCells,
		m.PoolBytes,
		m.PoolRequests,
		m.PoolClears,
		m.AllocFailures,
		m.RefreshDuration,
		m.RefreshErrors,
		m.PublishedTotal,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// ObserveKernel records one kernel call. Safe on a nil receiver.
func (m *Metrics) ObserveKernel(kernel string, cells int, d time.Duration) {
	if m == nil {
		return
	}
	m.KernelDuration.WithLabelValues(kernel).Observe(d.Seconds())
	m.KernelCells.WithLabelValues(kernel).Add(float64(cells))
}

// ObservePool exports a pool snapshot. Counters advance by the delta since
// the previous snapshot of the same pool. Safe on a nil receiver.
func (m *Metrics) ObservePool(s device.PoolStats) {
	if m == nil {
		return
	}
	pool := string(s.Kind)
	m.PoolBytes.WithLabelValues(pool, "in_use").Set(float64(s.InUseBytes))
	m.PoolBytes.WithLabelValues(pool, "cached").Set(float64(s.CachedBytes))

	m.mu.Lock()
	prev := m.lastPool[s.Kind]
	m.lastPool[s.Kind] = s
	m.mu.Unlock()

	addDelta(m.PoolRequests.WithLabelValues(pool, "hit"), s.Hits-prev.Hits)
	addDelta(m.PoolRequests.WithLabelValues(pool, "miss"), s.Misses-prev.Misses)
	addDelta(m.PoolRequests.WithLabelValues(pool, "failure"), s.Failures-prev.Failures)
	addDelta(m.PoolClears, s.Clears-prev.Clears)
}

// ObserveBreaker records a circuit breaker transition to state (0=closed,
// 1=open, 2=half-open). Safe on a nil receiver.
func (m *Metrics) ObserveBreaker(state int) {
	if m == nil {
		return
	}
	m.RedisCircuitBreakerState.Set(float64(state))
	if state == 1 {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// ObserveRefresh records one refresh iteration. Safe on a nil receiver.
func (m *Metrics) ObserveRefresh(d time.Duration, published int, err error) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(d.Seconds())
	if published > 0 {
		m.PublishedTotal.Add(float64(published))
	}
	if err != nil {
		m.RefreshErrors.Inc()
	}
}

func addDelta(c prometheus.Counter, d int64) {
	if d > 0 {
		c.Add(float64(d))
	}
}

// HealthStatus represents the service health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SourceOK       bool      `json:"source_ok"`
	LastRefresh    time.Time `json:"last_refresh"`
	LastError      string    `json:"last_error"`
	Symbols        int       `json:"symbols"`
	Columns        int       `json:"columns"`

	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

// SetRefresh records the outcome of one refresh iteration.
func (h *HealthStatus) SetRefresh(symbols, cols int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.SourceOK = false
		h.LastError = err.Error()
		return
	}
	h.SourceOK = true
	h.LastError = ""
	h.LastRefresh = time.Now()
	h.Symbols = symbols
	h.Columns = cols
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SourceOK || !h.RedisConnected {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.SourceOK && !h.RedisConnected {
		overallStatus = "unhealthy"
	}

	refreshAge := ""
	if !h.LastRefresh.IsZero() {
		refreshAge = time.Since(h.LastRefresh).Round(time.Millisecond).String()
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		SourceOK       bool    `json:"source_ok"`
		LastRefresh    string  `json:"last_refresh"`
		RefreshAge     string  `json:"refresh_age"`
		LastError      string  `json:"last_error,omitempty"`
		Symbols        int     `json:"symbols"`
		Columns        int     `json:"columns"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		SourceOK:       h.SourceOK,
		LastRefresh:    h.LastRefresh.Format(time.RFC3339),
		RefreshAge:     refreshAge,
		LastError:      h.LastError,
		Symbols:        h.Symbols,
		Columns:        h.Columns,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	mux    *http.ServeMux
	srv    *http.Server
}

// NewServer creates a metrics and health server. gatherer selects the
// registry served on /metrics; nil serves the default registry.
func NewServer(addr string, health *HealthStatus, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	if gatherer == nil {
		mux.Handle("/metrics", promhttp.Handler())
	} else {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	mux.Handle("/healthz", health)

	return &Server{
		health: health,
		addr:   addr,
		mux:    mux,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Handle registers an extra handler. Call it before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.WithField("component", "metrics").Infof("server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.WithField("component", "metrics").WithError(err).Error("server error")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
