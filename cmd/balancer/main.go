// Command balancer runs the adaptive load balancer: it dials the
// configured backends, starts the probe scheduler, and serves the
// frontend RPC surface until signaled to stop.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prequal-project/prequal/internal/config"
	"github.com/prequal-project/prequal/internal/frontend"
	"github.com/prequal-project/prequal/internal/logging"
	"github.com/prequal-project/prequal/internal/probe"
	"github.com/prequal-project/prequal/internal/registry"
	"github.com/prequal-project/prequal/internal/scheduler"
	"github.com/prequal-project/prequal/internal/selector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, FilePath: cfg.LogFilePath})

	reg := registry.New()
	for _, addr := range cfg.ServerURLs {
		if err := reg.Add(context.Background(), addr); err != nil {
			logger.Warn("could not add backend at startup", "backend", addr, "error", err)
		}
	}

	pool := probe.New()
	sel := selector.New(pool, reg, cfg.QRif)
	sched := scheduler.New(reg, pool, logger, cfg.ProbeInterval, cfg.ProbeK)
	fe := frontend.New(sel, pool, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: fe.Router()}
	go func() {
		logger.Info("balancer listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("balancer server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("balancer shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("balancer http shutdown error", "error", err)
	}

	wg.Wait()
}
