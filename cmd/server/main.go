package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"globaltrust/internal/aggregate"
	"globaltrust/internal/forms"
	"globaltrust/internal/platform/config"
	"globaltrust/internal/platform/health"
	"globaltrust/internal/platform/logger"
	"globaltrust/internal/platform/metrics"
	"globaltrust/internal/platform/tracer"
	"globaltrust/internal/router"
	"globaltrust/internal/services"
	"globaltrust/internal/session"
	httptransport "globaltrust/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Orchestration lives in the internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "globaltrust:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	log.Info("initializing globaltrust",
		"addr", cfg.Addr,
		"network", string(cfg.Network()),
		"service_host", cfg.ServiceHost(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	tr := tracer.NewOTel()

	creds, err := buildCredentials(cfg, log)
	if err != nil {
		return err
	}

	dialer, err := services.NewHTTPDialer(cfg.ServiceHost(), endpoints(cfg.Canisters),
		services.WithHTTPClient(&http.Client{Timeout: cfg.CallTimeout}),
		services.WithDialerLogger(log),
		services.WithDialerMetrics(m),
		services.WithTracer(tr),
	)
	if err != nil {
		return err
	}
	registry := services.NewRegistry(dialer,
		services.WithLogger(log),
		services.WithMetrics(m),
		services.WithRegistryTracer(tr),
	)
	views := router.New(router.WithLogger(log))

	sess := session.New(creds.manager, creds.providerURL,
		session.WithLogger(log),
		session.WithMetrics(m),
	)
	// The registry must accept a principal before the view router follows it.
	sess.Subscribe(registry)
	sess.Subscribe(views)

	checks := health.New(string(cfg.Network()))
	checks.RegisterCheck("session", func() error {
		if sess.State().Status == session.StatusUnresolved {
			return errors.New("session not resolved")
		}
		return nil
	})
	checks.RegisterCheck("services", func() error {
		if open := dialer.OpenCircuits(); len(open) > 0 {
			names := make([]string, len(open))
			for i, n := range open {
				names[i] = string(n)
			}
			return fmt.Errorf("circuit open: %s", strings.Join(names, ", "))
		}
		return nil
	})

	handler := httptransport.New(
		sess,
		registry,
		aggregate.New(aggregate.WithLogger(log), aggregate.WithMetrics(m), aggregate.WithTracer(tr)),
		forms.NewService(forms.WithLogger(log), forms.WithMetrics(m), forms.WithTracer(tr)),
		views,
		httptransport.WithLogger(log),
		httptransport.WithPendingSignIns(creds.manager),
	)
	routerCfg := httptransport.RouterConfig{
		Logger:         log,
		Latency:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
		Health:         checks.Register,
	}
	if creds.devProvider != nil {
		routerCfg.Mounts = map[string]http.Handler{devProviderPath: creds.devProvider}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := sess.Initialize(ctx)
	log.Info("session resolved",
		"status", state.Status.String(),
		"principal", state.Principal,
		"handles", registry.Snapshot().Len(),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httptransport.NewRouter(handler, routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	registry.Teardown(shutdownCtx)

	log.Info("server stopped")
	return nil
}

func endpoints(c config.Canisters) services.Endpoints {
	return services.Endpoints{
		services.Identity:     c.Identity,
		services.Assets:       c.Assets,
		services.Marketplace:  c.Marketplace,
		services.Lending:      c.Lending,
		services.Verification: c.Verification,
	}
}
