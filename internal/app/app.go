// Package app assembles the stores, services and HTTP surface of the
// TrustlessID server and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"trustlessid/internal/audit"
	"trustlessid/internal/audit/kafka"
	authhandler "trustlessid/internal/auth/handler"
	authservice "trustlessid/internal/auth/service"
	"trustlessid/internal/auth/store/revocation"
	userstore "trustlessid/internal/auth/store/user"
	"trustlessid/internal/dashboard"
	dashboardhandler "trustlessid/internal/dashboard/handler"
	dashboardmetrics "trustlessid/internal/dashboard/metrics"
	"trustlessid/internal/document"
	dochandler "trustlessid/internal/document/handler"
	"trustlessid/internal/evidence/analysis"
	analysishandler "trustlessid/internal/evidence/analysis/handler"
	"trustlessid/internal/evidence/fraud"
	fraudhandler "trustlessid/internal/evidence/fraud/handler"
	evidencemetrics "trustlessid/internal/evidence/metrics"
	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/evidence/vc"
	vchandler "trustlessid/internal/evidence/vc/handler"
	vcstore "trustlessid/internal/evidence/vc/store"
	"trustlessid/internal/fixtures"
	httpapi "trustlessid/internal/http"
	jwttoken "trustlessid/internal/jwt_token"
	"trustlessid/internal/platform/config"
	"trustlessid/internal/platform/httpserver"
	httpmetrics "trustlessid/internal/platform/metrics"
	platformredis "trustlessid/internal/platform/redis"
	rlmetrics "trustlessid/internal/ratelimit/metrics"
	"trustlessid/internal/ratelimit/middleware"
	rlmodels "trustlessid/internal/ratelimit/models"
	"trustlessid/internal/ratelimit/store/bucket"
	"trustlessid/internal/stubclient"
	"trustlessid/internal/verification"
	verificationhandler "trustlessid/internal/verification/handler"
	verificationmetrics "trustlessid/internal/verification/metrics"
	"trustlessid/internal/workflow"
	workflowhandler "trustlessid/internal/workflow/handler"
	workflowmetrics "trustlessid/internal/workflow/metrics"
)

const (
	tokenIssuer   = "trustlessid"
	tokenAudience = "trustlessid-web"

	activityBufferSize = 1024
	shutdownTimeout    = 10 * time.Second
)

type tokenRevocationList interface {
	jwttoken.RevocationChecker
	authservice.RevocationList
}

// App is a fully wired server.
type App struct {
	Config   config.Server
	Logger   *slog.Logger
	Server   *http.Server
	Registry *prometheus.Registry

	redis  *platformredis.Client
	sink   *kafka.Sink
	worker *audit.Worker
	tracer *sdktrace.TracerProvider
}

// New builds every component from cfg. Optional backends (Redis, Kafka, a
// remote stub server) are only used when configured.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.redis = rc

	a.tracer = sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(a.tracer)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// Activity log with optional Kafka fan-out.
	activityStore := audit.NewInMemoryStore()
	auditMetrics := audit.NewMetrics(a.Registry)
	publisherOpts := []audit.Option{audit.WithLogger(logger), audit.WithMetrics(auditMetrics)}
	if len(cfg.Kafka.Brokers) > 0 {
		buf := audit.NewRingBuffer(activityBufferSize)
		sink, err := kafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("create activity sink: %w", err)
		}
		if err := sink.EnsureTopic(ctx); err != nil {
			logger.WarnContext(ctx, "activity topic not verified, continuing", "topic", cfg.Kafka.Topic, "error", err)
		}
		a.sink = sink
		a.worker = audit.NewWorker(sink, buf, logger, auditMetrics)
		publisherOpts = append(publisherOpts, audit.WithFanout(buf))
	}
	activity := audit.NewPublisher(activityStore, publisherOpts...)

	// Stores, optionally seeded with the demo account.
	users := userstore.New()
	credentials := vcstore.NewInMemoryStore()
	documents := document.NewInMemoryStore()
	if cfg.SeedFixtures {
		if err := fixtures.Seed(ctx, fixtures.Stores{
			Users:       users,
			Credentials: credentials,
			Documents:   documents,
			Activity:    activityStore,
		}, time.Now()); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("seed fixtures: %w", err)
		}
		logger.InfoContext(ctx, "demo fixtures seeded", "email", fixtures.DemoEmail)
	}

	// Tokens.
	var trl tokenRevocationList = revocation.NewInMemoryTRL()
	if rc != nil {
		trl = revocation.NewRedisTRL(rc.Client, revocation.WithRegisterer(a.Registry))
	}
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, tokenIssuer, tokenAudience)
	validator := jwttoken.NewMiddlewareAdapter(jwtService, trl)
	auth := authservice.New(users, jwtService,
		authservice.WithLogger(logger),
		authservice.WithActivity(activity),
		authservice.WithRevocation(validator, trl),
		authservice.WithTokenTTL(cfg.TokenTTL),
	)

	// Local stubs. They always back the HTTP stub endpoints; the workflow
	// uses them unless a remote stub server is configured.
	evidenceMetrics := evidencemetrics.New(a.Registry)
	sim := providers.NewSimulator(cfg.Stubs.Seed, cfg.Stubs.Latency, cfg.Stubs.FailureRate)
	analyzer := analysis.NewSimulatedAnalyzer(sim)
	assessor := fraud.NewSimulatedAssessor(sim)
	issuer := vc.NewService(credentials,
		vc.WithLogger(logger),
		vc.WithMetrics(evidenceMetrics),
		vc.WithActivity(activity),
		vc.WithSimulator(sim),
		vc.WithValidity(cfg.Stubs.CredentialValidity),
	)

	registry := providers.NewRegistry()
	for _, p := range []providers.Provider{analyzer, assessor, issuer} {
		if err := registry.Register(p); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	var (
		wfAnalyzer workflow.DocumentAnalyzer = analyzer
		wfAssessor workflow.FraudAssessor    = assessor
		wfIssuer   workflow.CredentialIssuer = issuer
	)
	if cfg.Stubs.RemoteBaseURL != "" {
		remote := stubclient.New(cfg.Stubs.RemoteBaseURL, stubclient.WithLogger(logger))
		for _, p := range remote.Providers() {
			if err := registry.Register(p); err != nil {
				a.Close(ctx)
				return nil, err
			}
		}
		wfAnalyzer, wfAssessor, wfIssuer = remote, remote, remote
		logger.InfoContext(ctx, "workflow stubs routed to remote server", "base_url", cfg.Stubs.RemoteBaseURL)
	}

	documentService := document.NewService(documents, activity, logger)
	flow := workflow.NewService(workflow.NewInMemorySessionStore(), wfAnalyzer, wfAssessor, wfIssuer,
		workflow.WithLogger(logger),
		workflow.WithMetrics(workflowmetrics.New(a.Registry)),
		workflow.WithDocuments(documentService),
		workflow.WithActivity(activity),
		workflow.WithTracerProvider(a.tracer),
	)
	lookup := verification.NewService(credentials,
		verification.WithLogger(logger),
		verification.WithMetrics(verificationmetrics.New(a.Registry)),
		verification.WithActivity(activity),
	)
	summaries := dashboard.NewService(documentService, issuer, activity,
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(dashboardmetrics.New(a.Registry)),
	)

	limiter := newRateLimiter(cfg, rc, logger, rlmetrics.New(a.Registry))

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		Gatherer:     a.Registry,
		HTTPMetrics:  httpmetrics.New(a.Registry),
		Validator:    validator,
		RateLimiter:  limiter,
		Providers:    registry,
		Auth:         authhandler.New(auth, logger),
		Verification: verificationhandler.New(lookup, logger),
		Protected: []httpapi.Registrar{
			analysishandler.New(analyzer, logger, evidenceMetrics),
			fraudhandler.New(assessor, logger, evidenceMetrics),
			vchandler.New(issuer, logger, evidenceMetrics),
			dochandler.New(documentService, logger),
			workflowhandler.New(flow, auth, logger),
			dashboardhandler.New(summaries, logger),
		},
	})
	a.Server = httpserver.New(cfg.Addr, router)
	return a, nil
}

// newRateLimiter uses Redis as the primary window store when available and
// keeps an in-memory store as the fallback for when its circuit opens.
func newRateLimiter(cfg config.Server, rc *platformredis.Client, logger *slog.Logger, m *rlmetrics.Metrics) *middleware.Middleware {
	memory := bucket.NewInMemoryBucketStore()
	opts := []middleware.Option{
		middleware.WithDisabled(cfg.RateLimit.Disabled),
		middleware.WithMetrics(m),
		middleware.WithLimit(rlmodels.ScopeVerify, rlmodels.Limit{
			RequestsPerWindow: cfg.RateLimit.VerifyPerWindow,
			Window:            cfg.RateLimit.Window,
		}),
	}
	if rc == nil {
		return middleware.New(memory, logger, opts...)
	}
	opts = append(opts, middleware.WithFallback(memory))
	return middleware.New(bucket.NewRedisBucketStore(rc.Client), logger, opts...)
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.Server.Handler
}

// Run serves HTTP and drains the activity fan-out until ctx is cancelled,
// then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "server starting", "addr", a.Server.Addr, "env", a.Config.Environment)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.worker != nil {
		g.Go(func() error {
			if err := a.worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.Logger.InfoContext(shutdownCtx, "server shutting down")
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases external connections. Safe to call on a partially built App.
func (a *App) Close(ctx context.Context) {
	if a.sink != nil {
		a.sink.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "failed to close redis client", "error", err)
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "failed to shut down tracer provider", "error", err)
		}
	}
}
