package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Gate metrics
	GateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_gate_decisions_total",
			Help: "Feature gate decisions by feature and outcome",
		},
		[]string{"feature", "decision"},
	)

	QuotaIncrements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_quota_increments_total",
			Help: "Successful chargeable actions recorded per feature",
		},
		[]string{"feature"},
	)

	CompletionsMarked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_completions_marked_total",
			Help: "Daily completion flags set per feature",
		},
		[]string{"feature"},
	)

	// Countdown metrics
	TimersExpired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_timers_expired_total",
			Help: "Countdown windows that reached zero",
		},
		[]string{"feature"},
	)

	// Remote call metrics
	RemoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_remote_calls_total",
			Help: "Language model backend calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	RemoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingora_remote_call_duration_seconds",
			Help:    "Language model backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DefinitionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingora_definition_cache_hits_total",
			Help: "Definition lookups served from cache",
		},
	)

	DefinitionCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lingora_definition_cache_misses_total",
			Help: "Definition lookups that required a backend call",
		},
	)

	// Rollover metrics
	RecordsPruned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingora_records_pruned_total",
			Help: "Stale daily records removed at rollover",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		GateDecisions,
		QuotaIncrements,
		CompletionsMarked,
		TimersExpired,
		RemoteCalls,
		RemoteCallDuration,
		DefinitionCacheHits,
		DefinitionCacheMisses,
		RecordsPruned,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
