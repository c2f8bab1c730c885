// Command bloop publishes one generated blog post a day to Ghost and announces
// it on X. It runs until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"bloop/internal/config"
	"bloop/internal/infra/generator"
	"bloop/internal/infra/ghost"
	"bloop/internal/infra/scheduler"
	"bloop/internal/infra/social"
	workerPkg "bloop/internal/infra/worker"
	"bloop/internal/observability/logging"
	"bloop/internal/observability/metrics"
	"bloop/internal/observability/tracing"
	"bloop/internal/resilience/circuitbreaker"
	"bloop/internal/usecase/cycle"
)

const cycleJobName = "content_cycle"

func main() {
	// A missing .env is fine; real environment variables take precedence.
	_ = godotenv.Load()

	logger := initLogger()
	logger.Info("Starting Bloop Bot...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("bloop failed to start", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
	logger.Info("Bloop stopped")
}

func initLogger() *slog.Logger {
	logger := logging.NewFromEnv()
	slog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, logger *slog.Logger) error {
	logger.Info("Initializing Bloop...")

	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerCfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics.ConfigMetrics)

	genCfg, warnings, err := generator.LoadConfig(workerMetrics.ConfigMetrics)
	for _, w := range warnings {
		logger.Warn("Configuration fallback applied", slog.String("warning", w))
	}
	if err != nil {
		return err
	}

	creds, err := config.LoadCredentials(genCfg.Provider)
	if err != nil {
		return err
	}

	shutdownTracer := tracing.InitTracer("bloop")
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	breakers := circuitbreaker.NewRegistry()
	svc, err := buildService(logger, genCfg, creds, workerCfg, workerMetrics, breakers)
	if err != nil {
		return err
	}

	loc := workerCfg.Location()
	sched := scheduler.New(scheduler.WithLocation(loc), scheduler.WithLogger(logger))
	if err := sched.Every(cycleJobName, workerCfg.CronSchedule, svc.Run); err != nil {
		return fmt.Errorf("failed to schedule content cycle: %w", err)
	}

	supervisor := scheduler.NewSupervisor(sched, scheduler.SupervisorConfig{
		PollInterval: workerCfg.PollInterval,
		Cooldown:     workerCfg.PollCooldown,
		Logger:       logger,
		Observer:     workerMetrics,
	})

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger)

	g, gctx := errgroup.WithContext(ctx)

	// Side servers never stop the bot.
	g.Go(func() error {
		if err := healthServer.Start(gctx); err != nil {
			logger.Error("health server stopped with error", slog.Any("error", err))
		}
		return nil
	})
	g.Go(func() error {
		if err := startMetricsServer(gctx, logger, workerCfg.MetricsPort, breakers); err != nil {
			logger.Error("metrics server stopped with error", slog.Any("error", err))
		}
		return nil
	})

	next, _ := sched.NextRun(cycleJobName)
	logger.Info("Bloop initialized successfully",
		slog.String("schedule", workerCfg.CronSchedule),
		slog.String("timezone", loc.String()),
		slog.Time("next_run", next),
		slog.String("generator", genCfg.Provider),
		slog.String("model", genCfg.Model))
	healthServer.SetReady(true)

	if workerCfg.RunOnStart {
		logger.Info("running content cycle on start")
		if err := sched.RunAll(ctx); err != nil {
			logger.Error("Error in main loop: " + err.Error())
		}
	}

	// The supervisor owns the main goroutine until shutdown.
	if err := supervisor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("supervisor stopped unexpectedly", slog.Any("error", err))
	}
	healthServer.SetReady(false)

	return g.Wait()
}

// buildService wires the three collaborators, each behind its own breaker, into
// the cycle service.
func buildService(
	logger *slog.Logger,
	genCfg generator.Config,
	creds *config.Credentials,
	workerCfg *workerPkg.WorkerConfig,
	workerMetrics *workerPkg.WorkerMetrics,
	breakers *circuitbreaker.Registry,
) (*cycle.Service, error) {
	outbound := metrics.NewOutboundMetrics(prometheus.DefaultRegisterer)

	llmBreaker := circuitbreaker.New(circuitbreaker.LLMConfig())
	cmsBreaker := circuitbreaker.New(circuitbreaker.CMSConfig())
	socialBreaker := circuitbreaker.New(circuitbreaker.SocialConfig())
	breakers.Register(llmBreaker)
	breakers.Register(cmsBreaker)
	breakers.Register(socialBreaker)

	genCfg.Transport = outbound.Transport(circuitbreaker.NameLLM, nil)
	gen := createGenerator(genCfg, creds, llmBreaker)

	publisher, err := ghost.NewClient(ghost.Config{
		Host:        creds.Ghost.Host,
		AdminAPIKey: creds.Ghost.AdminAPIKey,
		Transport:   outbound.Transport(circuitbreaker.NameCMS, nil),
	}, cmsBreaker)
	if err != nil {
		return nil, fmt.Errorf("failed to create ghost client: %w", err)
	}

	announcer, err := social.NewClient(social.Config{
		BearerToken:       creds.Twitter.BearerToken,
		ConsumerKey:       creds.Twitter.APIKey,
		ConsumerSecret:    creds.Twitter.APISecret,
		AccessToken:       creds.Twitter.AccessToken,
		AccessTokenSecret: creds.Twitter.AccessTokenSecret,
		Transport:         outbound.Transport(circuitbreaker.NameSocial, nil),
	}, socialBreaker)
	if err != nil {
		return nil, fmt.Errorf("failed to create x client: %w", err)
	}
	logger.Info("collaborators configured",
		slog.String("ghost_host", creds.Ghost.Host),
		slog.String("x_auth", announcer.AuthMode()))

	return cycle.NewService(gen, publisher, announcer, cycle.Config{
		Location: workerCfg.Location(),
		Timeout:  workerCfg.CycleTimeout,
		Observer: workerMetrics,
	}), nil
}

func createGenerator(cfg generator.Config, creds *config.Credentials, cb *circuitbreaker.CircuitBreaker) cycle.Generator {
	recorder := generator.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	switch cfg.Provider {
	case generator.ProviderOpenAI:
		return generator.NewOpenAI(creds.OpenAI.APIKey, cfg, cb, recorder)
	default:
		return generator.NewClaude(creds.Anthropic.APIKey, cfg, cb, recorder)
	}
}
