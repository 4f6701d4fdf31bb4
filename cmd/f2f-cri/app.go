package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"f2f-cri/internal/client"
	"f2f-cri/internal/credential"
	"f2f-cri/internal/instructions"
	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/platform/config"
	"f2f-cri/internal/platform/database"
	"f2f-cri/internal/platform/health"
	"f2f-cri/internal/platform/kafka/producer"
	"f2f-cri/internal/platform/logger"
	"f2f-cri/internal/platform/metrics"
	redisclient "f2f-cri/internal/platform/redis"
	"f2f-cri/internal/platform/tracer"
	"f2f-cri/internal/session/service"
	"f2f-cri/internal/session/store"
	"f2f-cri/internal/vendor"
	"f2f-cri/pkg/platform/audit"
	auditmetrics "f2f-cri/pkg/platform/audit/metrics"
	"f2f-cri/pkg/platform/audit/publisher"
	"f2f-cri/pkg/platform/audit/sink"
	"f2f-cri/pkg/platform/circuit"
)

// issuanceClaimTTL bounds how long a crashed issuer can block the next attempt.
const issuanceClaimTTL = 2 * time.Minute

// app holds every long-lived dependency. close releases them in reverse order.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	health  *health.Handler
	redis   *redisclient.Client
	db      *database.Pool
	service *service.Service
	signer  *jwttoken.Signer

	closers []func()
}

func newApp(ctx context.Context) (_ *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Server.LogLevel)
	a := &app{cfg: cfg, logger: log, health: health.New(cfg.Server.Environment)}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	m := metrics.New()

	a.redis, err = redisclient.New(ctx, cfg.Redis, redisclient.NewPoolMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		return nil, err
	}
	if a.redis != nil {
		a.health.RegisterCheck("redis", a.redis.Check)
		a.closers = append(a.closers, func() { _ = a.redis.Close() })
	}

	a.db, err = database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if a.db != nil {
		a.health.RegisterCheck("postgres", a.db.Check)
		a.closers = append(a.closers, func() { _ = a.db.Close() })
	}

	sessions, err := a.sessionStore()
	if err != nil {
		return nil, err
	}

	var (
		auditPublisher audit.Publisher
		notifier       *producer.Producer
	)
	if cfg.Kafka.Enabled() {
		notifier, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
			ClientID:        "f2f-cri",
		}, log)
		if err != nil {
			return nil, err
		}
		a.health.RegisterCheck("kafka", notifier.Check)
		a.closers = append(a.closers, notifier.Close)

		pub := publisher.New(sink.NewKafka(notifier, cfg.Kafka.AuditTopic),
			publisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
			publisher.WithLogger(log),
			publisher.WithMetrics(auditmetrics.New()),
		)
		a.closers = append(a.closers, pub.Close)
		auditPublisher = pub
	} else {
		log.Warn("kafka not configured; audit events are logged only and expiry notices are disabled")
	}
	emitter := audit.NewEmitter(log, auditPublisher)

	signingKey, err := jwttoken.LoadSigningKey(cfg.Issuer.SigningKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	signer := jwttoken.NewSigner(signingKey, cfg.Issuer.SigningKeyID, cfg.Issuer.ID)
	a.signer = signer

	clients, err := client.Load(cfg.Issuer.ClientsFile)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}

	vendorClient, err := a.vendorClient(m)
	if err != nil {
		return nil, err
	}

	issuerOpts := []credential.Option{
		credential.WithAuditor(emitter),
		credential.WithMetrics(m),
		credential.WithLogger(log),
		credential.WithCredentialTTL(cfg.Issuer.CredentialTTL),
	}
	if notifier != nil {
		issuerOpts = append(issuerOpts, credential.WithDelivery(notifier, cfg.Kafka.DeliveryTopic))
	}
	issuer := credential.NewIssuer(signer, a.issuanceGuard(), issuerOpts...)

	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithAuditor(emitter),
		service.WithMetrics(m),
	}
	if notifier != nil {
		serviceOpts = append(serviceOpts, service.WithNotifier(notifier))
	}
	if cfg.S3.Enabled() {
		archive, err := instructions.New(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		serviceOpts = append(serviceOpts, service.WithArchive(archive))
	}

	a.service, err = service.New(sessions, vendorClient, issuer, clients, signer,
		service.Config{
			IssuerID:         cfg.Issuer.ID,
			AuthSessionTTL:   cfg.Issuer.AuthSessionTTL,
			AuthCodeTTL:      cfg.Issuer.AuthCodeTTL,
			AccessTokenTTL:   cfg.Issuer.AccessTokenTTL,
			VendorSessionTTL: cfg.Vendor.SessionTTL(),
			DeliveryTopic:    cfg.Kafka.DeliveryTopic,
		},
		serviceOpts...,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) sessionStore() (store.Store, error) {
	switch a.cfg.Store.Backend {
	case "redis":
		if a.redis == nil {
			return nil, errors.New("redis session store selected without REDIS_URL")
		}
		// Sessions must outlive the branch-visit window so the expiry sweep can find them.
		return store.NewRedis(a.redis.Client, store.WithRetention(a.cfg.Vendor.SessionTTL()+7*24*time.Hour)), nil
	case "postgres":
		if a.db == nil {
			return nil, errors.New("postgres session store selected without DATABASE_URL")
		}
		return store.NewPostgres(a.db.DB()), nil
	}
	return store.NewInMemory(), nil
}

// issuanceGuard shares claims across replicas when Redis is available.
func (a *app) issuanceGuard() credential.Guard {
	if a.redis == nil {
		return credential.NewInMemoryGuard()
	}
	return credential.NewRedisGuard(a.redis.Client, issuanceClaimTTL,
		credential.WithGuardRetention(a.cfg.Issuer.IssuanceGuardTTL))
}

func (a *app) vendorClient(m *metrics.Metrics) (*vendor.Client, error) {
	cfg := a.cfg.Vendor
	opts := []vendor.Option{
		vendor.WithMetrics(m),
		vendor.WithCallback(cfg.CallbackURL, cfg.SessionTTL()),
		vendor.WithBackoff(vendor.BackoffConfig{MaxRetries: cfg.MaxRetries}),
		vendor.WithBreaker(circuit.New("vendor",
			circuit.WithFailureThreshold(cfg.BreakerFailures),
			circuit.WithCooldown(cfg.BreakerCooldown),
			circuit.WithOnStateChange(func(name string, from, to circuit.State) {
				a.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
				m.SetVendorCircuitOpen(to == circuit.StateOpen)
			}),
		)),
	}
	if a.cfg.Server.TracingEnabled {
		opts = append(opts, vendor.WithTracer(tracer.NewOTel()))
	}
	if cfg.KeyPath != "" {
		key, err := vendor.LoadSigningKey(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load vendor key: %w", err)
		}
		opts = append(opts, vendor.WithSigningKey(key))
	}
	return vendor.New(cfg.BaseURL, cfg.ClientSDKID, cfg.Timeout, opts...), nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
