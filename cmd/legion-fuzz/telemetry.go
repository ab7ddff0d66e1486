package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
	"github.com/jihwankim/legion-fuzz/pkg/telemetry"
)

// telemetryServer runs the optional /metrics and /live endpoints for the
// duration of one fuzzing run.
type telemetryServer struct {
	srv *http.Server
}

func startTelemetryServer(addr string, feed *telemetry.LiveFeed, logger *reporting.Logger) *telemetryServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	mux.HandleFunc("/live", feed.Handler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("telemetry server stopped", "error", err)
		}
	}()
	logger.Info("telemetry listening", "addr", addr)

	return &telemetryServer{srv: srv}
}

func (t *telemetryServer) Shutdown() {
	if t == nil || t.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = t.srv.Shutdown(ctx)
}
