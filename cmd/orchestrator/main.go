package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/geocoder89/benchorch/internal/broker"
	"github.com/geocoder89/benchorch/internal/config"
	"github.com/geocoder89/benchorch/internal/dispatch"
	"github.com/geocoder89/benchorch/internal/domain/campaign"
	"github.com/geocoder89/benchorch/internal/health"
	"github.com/geocoder89/benchorch/internal/httpapi"
	"github.com/geocoder89/benchorch/internal/httpapi/handlers"
	"github.com/geocoder89/benchorch/internal/observability"
	"github.com/geocoder89/benchorch/internal/resultproc"
	"github.com/geocoder89/benchorch/internal/retry"
	"github.com/geocoder89/benchorch/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	bindFlags(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(context.Background(), "benchorch-orchestrator", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	logEnv := cfg.Env
	if cfg.Debug {
		logEnv = "dev"
	}
	base := observability.NewLogger(logEnv)
	log := slog.New(observability.NewTraceHandler(base.Handler()))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	metrics := observability.NewProm(reg)

	st := store.New(cfg.StateFile, log)
	if cfg.ResetState {
		log.Info("--reset-state passed, starting with empty state")
	} else {
		st.Load()
	}

	rawBroker := broker.NewRedisBroker(broker.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		UseTLS:   cfg.RedisSSL,
	})
	brk := broker.NewBreakerBroker(rawBroker)
	defer brk.Close()

	disp := dispatch.New(brk)

	retryPolicy := retry.Policy{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialDelay:      cfg.RetryInitialDelay,
		BackoffMultiplier: cfg.RetryBackoffMultiplier,
		MaxDelay:          cfg.RetryMaxDelay,
		Jitter:            cfg.RetryJitter,
	}
	retryEngine := retry.New(st, brk, retryPolicy, time.Duration(cfg.DefaultJobTimeoutSeconds)*time.Second, cfg.JobTimeoutCheckInterval, log, retry.Hooks{
		OnTimeout: func() { metrics.JobsTimedOutTotal.Inc() },
		OnRetry:   func() { metrics.JobsRetriedTotal.Inc() },
	})

	healthMonitor := health.New(st, cfg.HeartbeatTimeout, cfg.HealthCheckInterval, log)

	resultProcessor := resultproc.New(st, brk, cfg.OutputsDir, cfg.ResultsPollTimeout, log, resultproc.Hooks{
		OnCampaignComplete: func(c campaign.Campaign) {
			metrics.CampaignCompletionSeconds.Observe(time.Since(c.CreatedAt).Seconds())
		},
	})

	deps := &handlers.Deps{
		Store:      st,
		Broker:     brk,
		Dispatcher: disp,
		Health:     healthMonitor,
		Retry:      retryEngine,
		OutputsDir: cfg.OutputsDir,
		Log:        log,
		Metrics:    metrics,
	}
	router := httpapi.New(deps, metrics, reg, []string{"http://localhost:3000"})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Result Processor starts first: it is the only component that can
	// durably record a worker's result once produced. On shutdown every
	// background loop sees the same cancelled ctx at once; main does not
	// wait for any of them to return before the final snapshot.
	go resultProcessor.Run(ctx)
	go healthMonitor.Run(ctx)
	go retryEngine.Run(ctx)
	go st.RunSnapshotLoop(ctx, cfg.SnapshotInterval)

	go func() {
		log.Info("orchestrator listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server graceful shutdown failed", "error", err)
		_ = srv.Close()
	}

	if err := st.ForceSave(); err != nil {
		log.Error("final snapshot failed", "error", err)
	}
	log.Info("orchestrator stopped")
}

func bindFlags(cfg *config.Config) {
	host := flag.String("host", cfg.Host, "HTTP listen host")
	port := flag.Int("port", cfg.Port, "HTTP listen port")
	redisHost := flag.String("redis-host", cfg.RedisHost, "Redis host")
	redisPort := flag.Int("redis-port", cfg.RedisPort, "Redis port")
	redisPassword := flag.String("redis-password", cfg.RedisPassword, "Redis password")
	redisSSL := flag.Bool("redis-ssl", cfg.RedisSSL, "Use TLS to connect to Redis")
	stateFile := flag.String("state-file", cfg.StateFile, "Path to the state snapshot file")
	resetState := flag.Bool("reset-state", cfg.ResetState, "Start with empty state, ignoring any existing snapshot")
	debug := flag.Bool("debug", cfg.Debug, "Enable debug logging")
	flag.Parse()

	cfg.Host = *host
	cfg.Port = *port
	cfg.RedisHost = *redisHost
	cfg.RedisPort = *redisPort
	cfg.RedisPassword = *redisPassword
	cfg.RedisSSL = *redisSSL
	cfg.StateFile = *stateFile
	cfg.ResetState = *resetState
	cfg.Debug = *debug
}
