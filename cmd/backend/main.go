// Command backend runs a single Greeter-style backend agent, answering
// SayHello and GetMetrics over HTTP.
package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prequal-project/prequal/internal/backend"
	"github.com/prequal-project/prequal/internal/logging"
)

func main() {
	id := envOr("BACKEND_ID", strconv.Itoa(rand.IntN(1000)))
	addr := envOr("LISTEN_ADDR", ":8081")
	minDelay := envDurationMS("MIN_DELAY_MS", 0)
	maxDelay := envDurationMS("MAX_DELAY_MS", 0)

	logger := logging.New(logging.Options{Level: envOr("LOG_LEVEL", "info")})
	agent := backend.New(id, minDelay, maxDelay)

	srv := &http.Server{Addr: addr, Handler: agent.Handler(logger)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("backend listening", "id", id, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("backend server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("backend shutting down", "id", id)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("backend shutdown error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationMS(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
