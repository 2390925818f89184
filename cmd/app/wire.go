package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain/ports/adapter"
	"workforce-billing/internal/domain/ports/repository"
	"workforce-billing/internal/infra/adapters/notify"
	"workforce-billing/internal/infra/adapters/payment"
	"workforce-billing/internal/infra/api/apiv1"
	"workforce-billing/internal/infra/auth"
	"workforce-billing/internal/infra/db/memory"
	pg "workforce-billing/internal/infra/db/postgres"
	"workforce-billing/internal/infra/logging"
	"workforce-billing/internal/infra/metrics"
	red "workforce-billing/internal/infra/redis"
	"workforce-billing/internal/infra/worker"
	"workforce-billing/internal/usecase"
)

const (
	devKeyID     = "rzp_test_sandbox"
	devKeySecret = "sandbox_secret"
)

// app is the fully wired process. close releases every resource it opened.
type app struct {
	cfg  *config.Config
	log  *zerolog.Logger
	pool *pgxpool.Pool // nil in dev mode
	jobs *worker.Pool  // nil when notifications are delivered inline

	api     *apiv1.Server
	sweeper usecase.SweeperUseCase

	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func loadConfig(opts *rootOptions) (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(opts.configPath, opts.dev)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("DEV MODE: in-memory storage and sandbox payment gateway")
	}
	return cfg, logger, nil
}

type stores struct {
	orgs     repository.OrganizationRepository
	agents   repository.AgentRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	tm       repository.TransactionManager
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	var (
		st       stores
		gateway  adapter.PaymentGateway
		verifier adapter.SignatureVerifier
		locker   adapter.Locker
		seen     adapter.IdempotencyStore
		limiter  adapter.RateLimiter
		notifier adapter.Notifier
		keyID    = cfg.Payment.Razorpay.KeyID
	)

	if cfg.Runtime.Dev {
		mem := memory.NewStore()
		st = stores{mem.Organizations(), mem.Agents(), mem.Subscriptions(), mem.Payments(), mem}
		gateway = payment.NewSandboxGateway()
		secret := cfg.Payment.Razorpay.KeySecret
		if secret == "" {
			secret = devKeySecret
		}
		webhookSecret := cfg.Payment.Razorpay.WebhookSecret
		if webhookSecret == "" {
			webhookSecret = secret
		}
		verifier = payment.NewSigner(secret, webhookSecret)
		if keyID == "" {
			keyID = devKeyID
		}
	} else {
		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.closers = append(a.closers, pool.Close)
		st = stores{
			orgs:     pg.NewOrganizationRepo(pool),
			agents:   pg.NewAgentRepo(pool),
			subs:     pg.NewSubscriptionRepo(pool),
			payments: pg.NewPaymentRepo(pool),
			tm:       pg.NewTxManager(pool),
		}
		rzp, err := payment.NewRazorpayGateway(cfg.Payment.Razorpay)
		if err != nil {
			return nil, fmt.Errorf("razorpay: %w", err)
		}
		gateway = rzp
		verifier = payment.NewSigner(cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.WebhookSecret)
	}

	if cfg.Redis.URL != "" && !cfg.Runtime.Dev {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		locker = red.NewLocker(rc)
		seen = red.NewIdempotencyStore(rc)
		limiter = red.NewRateLimiter(rc)
	} else {
		logger.Info().Msg("redis not configured; using in-process lock, idempotency and rate limiting")
		locker = red.NewLocalLocker()
		seen = red.NewLocalIdempotencyStore()
		limiter = red.NewLocalRateLimiter()
	}

	if cfg.Notify.Telegram.Token != "" && !cfg.Runtime.Dev {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.Telegram)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.jobs = worker.NewPool(2, logger)
		notifier = notify.NewAsyncNotifier(tg, a.jobs, 10*time.Second)
	} else {
		notifier = notify.NewNoopNotifier(logger)
	}

	authn, err := auth.NewJWTAuthenticator(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	var clock usecase.Clock
	resolver := usecase.NewPaymentResolver(st.payments, st.subs, st.agents, st.tm, notifier, clock, logger)
	a.sweeper = usecase.NewSweeperUseCase(st.payments, gateway, resolver, locker, notifier, cfg.Sweeper, clock, logger)
	a.api = apiv1.NewServer(apiv1.Deps{
		Workforce:     usecase.NewWorkforceUseCase(st.orgs, st.agents, st.subs, clock, logger),
		Subscriptions: usecase.NewSubscriptionUseCase(st.orgs, st.agents, st.subs, st.tm, clock, logger),
		Access:        usecase.NewAccessUseCase(st.orgs, st.agents, st.subs, clock, logger),
		Orders:        usecase.NewOrderUseCase(st.orgs, st.agents, st.subs, st.payments, gateway, keyID, clock, logger),
		Payments:      usecase.NewPaymentUseCase(st.orgs, st.agents, st.payments, verifier, resolver, logger),
		Webhooks:      usecase.NewWebhookUseCase(st.payments, verifier, seen, resolver, logger),
		Sweeper:       a.sweeper,
		Auth:          authn,
		Limiter:       limiter,
		CronSecret:    cfg.Sweeper.CronSecret,
	}, logger)

	ok = true
	return a, nil
}

// startJobs runs the notification pool. It outlives ctx so that close can
// drain messages queued during shutdown.
func (a *app) startJobs(ctx context.Context) {
	if a.jobs == nil {
		return
	}
	a.jobs.Start(context.WithoutCancel(ctx))
	a.closers = append(a.closers, a.jobs.Stop)
}
