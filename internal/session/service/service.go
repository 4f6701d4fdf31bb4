// Package service is the journey orchestrator. It owns the session state
// machine: every mutation goes through store.Execute so legality is decided
// against the state read in the same transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"f2f-cri/internal/client"
	"f2f-cri/internal/credential"
	jwttoken "f2f-cri/internal/jwt_token"
	"f2f-cri/internal/platform/metrics"
	"f2f-cri/internal/session/store"
	"f2f-cri/pkg/platform/keylock"
)

// ClientRegistry resolves relying parties. Implemented by client.Registry.
type ClientRegistry interface {
	Get(id string) (*client.Client, error)
}

// TokenIssuer mints and checks our bearer tokens. Implemented by jwttoken.Signer.
type TokenIssuer interface {
	IssueAccessToken(ctx context.Context, sessionID, clientID string, ttl time.Duration) (string, time.Time, error)
	ValidateAccessToken(ctx context.Context, token string) (*jwttoken.AccessTokenClaims, error)
}

// CredentialIssuer is implemented by credential.Issuer.
type CredentialIssuer interface {
	Issue(ctx context.Context, in credential.Input) (*credential.Outcome, error)
	Existing(ctx context.Context, sessionID string) (*credential.Outcome, error)
}

// Config carries the journey timings.
type Config struct {
	// IssuerID is our identity: component_id in audit and the default
	// audience for client-signed JWTs.
	IssuerID string
	// AuthSessionTTL bounds how long the user has to come back for an
	// authorization code once a step completes.
	AuthSessionTTL time.Duration
	AuthCodeTTL    time.Duration
	AccessTokenTTL time.Duration
	// VendorSessionTTL is the branch-visit window. Sessions older than this
	// plus a day are swept with an expiry notice.
	VendorSessionTTL time.Duration
	DeliveryTopic    string
}

const (
	defaultAuthSessionTTL   = time.Hour
	defaultAuthCodeTTL      = 10 * time.Minute
	defaultAccessTokenTTL   = time.Hour
	defaultVendorSessionTTL = 15 * 24 * time.Hour

	expiryGrace = 24 * time.Hour
)

type Service struct {
	sessions store.Store
	vendor   VendorClient
	issuer   CredentialIssuer
	clients  ClientRegistry
	tokens   TokenIssuer
	cfg      Config
	// issuing serializes credential work per session within this process.
	issuing *keylock.Striped

	auditor  AuditEmitter
	archive  InstructionsArchive
	notifier NotificationPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(auditor AuditEmitter) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithArchive enables keeping a copy of each instructions PDF.
func WithArchive(a InstructionsArchive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithNotifier enables expiry notices on cfg.DeliveryTopic.
func WithNotifier(n NotificationPublisher) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(
	sessions store.Store,
	vendor VendorClient,
	issuer CredentialIssuer,
	clients ClientRegistry,
	tokens TokenIssuer,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if sessions == nil || vendor == nil || issuer == nil || clients == nil || tokens == nil {
		return nil, errors.New("session service: missing dependency")
	}
	if cfg.IssuerID == "" {
		return nil, errors.New("session service: issuer id is required")
	}
	if cfg.AuthSessionTTL <= 0 {
		cfg.AuthSessionTTL = defaultAuthSessionTTL
	}
	if cfg.AuthCodeTTL <= 0 {
		cfg.AuthCodeTTL = defaultAuthCodeTTL
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = defaultAccessTokenTTL
	}
	if cfg.VendorSessionTTL <= 0 {
		cfg.VendorSessionTTL = defaultVendorSessionTTL
	}

	svc := &Service{
		sessions: sessions,
		vendor:   vendor,
		issuer:   issuer,
		clients:  clients,
		tokens:   tokens,
		cfg:      cfg,
		issuing:  keylock.New(0),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}
