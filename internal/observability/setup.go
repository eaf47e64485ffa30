package observability

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/observability"
)

type Options struct {
	ServiceName  string
	OTLPEndpoint string
	LogLevel     slog.Level
}

// Telemetry holds what the server needs after logging, metrics and tracing
// are installed.
type Telemetry struct {
	MetricsHandler http.Handler
	shutdown       func(context.Context) error
}

func Setup(opts Options) *Telemetry {
	observability.InitLogger(opts.LogLevel)
	observability.InitMetrics()
	shutdown := observability.InitTracing(opts.ServiceName, opts.OTLPEndpoint)

	slog.Info("observability initialized", "service", opts.ServiceName, "otlp_endpoint", opts.OTLPEndpoint, "log_level", opts.LogLevel.String())
	return &Telemetry{MetricsHandler: promhttp.Handler(), shutdown: shutdown}
}

func (t *Telemetry) Shutdown(ctx context.Context) {
	if err := t.shutdown(ctx); err != nil {
		slog.Error("failed to shut down tracing", "error", err)
	}
}
