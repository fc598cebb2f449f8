package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"spotplay/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	PlaysTotal     *prometheus.CounterVec
	ControlsTotal  *prometheus.CounterVec
	ErrorsTotal    *prometheus.CounterVec
	ProcessingTime *prometheus.HistogramVec
	KnownDevices   prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		PlaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotplay_plays_total",
				Help: "Total number of play requests handled",
			},
			[]string{"intent", "status"},
		),
		ControlsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotplay_controls_total",
				Help: "Total number of control requests handled",
			},
			[]string{"action", "status"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spotplay_errors_total",
				Help: "Total number of errors",
			},
			[]string{"component", "type"},
		),
		ProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spotplay_processing_duration_seconds",
				Help:    "Time spent handling requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		KnownDevices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "spotplay_known_devices",
				Help: "Number of playback devices seen on the account",
			},
		),
	}

	prometheus.MustRegister(
		metrics.PlaysTotal,
		metrics.ControlsTotal,
		metrics.ErrorsTotal,
		metrics.ProcessingTime,
		metrics.KnownDevices,
	)

	mux := setupRoutes()
	server := createHTTPServer(config, mux)

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		metrics: metrics,
	}
}

func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"spotplay"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"spotplay"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) RecordPlay(intent, status string) {
	s.metrics.PlaysTotal.WithLabelValues(intent, status).Inc()
}

func (s *Server) RecordControl(action, status string) {
	s.metrics.ControlsTotal.WithLabelValues(action, status).Inc()
}

func (s *Server) RecordError(component, errorType string) {
	s.metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func (s *Server) RecordProcessingTime(requestType string, duration time.Duration) {
	s.metrics.ProcessingTime.WithLabelValues(requestType).Observe(duration.Seconds())
}

func (s *Server) SetKnownDevices(count int) {
	s.metrics.KnownDevices.Set(float64(count))
}
