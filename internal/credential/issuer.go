// Package credential signs the identity credential for a completed branch
// visit and makes sure it is issued, audited and delivered exactly once.
package credential

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"f2f-cri/internal/evidence/engine"
	evmodels "f2f-cri/internal/evidence/models"
	"f2f-cri/internal/platform/metrics"
	"f2f-cri/internal/session/models"
	"f2f-cri/internal/vendor"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
	"f2f-cri/pkg/requestcontext"
)

const defaultCredentialTTL = 180 * 24 * time.Hour

// Signer signs credential claims with the issuer key.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Issuer() string
}

// AuditEmitter receives the VC_ISSUED event.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// DeliveryPublisher puts messages on the relying party's queue.
type DeliveryPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type Option func(*Issuer)

func WithAuditor(a AuditEmitter) Option {
	return func(i *Issuer) { i.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Issuer) { i.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

// WithDelivery enables publishing issued credentials to topic.
func WithDelivery(p DeliveryPublisher, topic string) Option {
	return func(i *Issuer) {
		i.delivery = p
		i.deliveryTopic = topic
	}
}

func WithCredentialTTL(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.ttl = d
		}
	}
}

type Issuer struct {
	signer        Signer
	guard         Guard
	auditor       AuditEmitter
	delivery      DeliveryPublisher
	deliveryTopic string
	metrics       *metrics.Metrics
	logger        *slog.Logger
	ttl           time.Duration
	flight        singleflight.Group
}

func NewIssuer(signer Signer, guard Guard, opts ...Option) *Issuer {
	i := &Issuer{
		signer: signer,
		guard:  guard,
		ttl:    defaultCredentialTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Input is a session that has reached ACCESS_TOKEN_ISSUED together with the
// completed vendor session and the document fields read from its media.
type Input struct {
	Session   *models.Session
	Completed *vendor.CompletedSession
	Fields    *evmodels.DocumentFields
	// Deliver publishes the credential to the relying party queue when this
	// call is the one that signs it.
	Deliver bool
}

// Outcome is what a caller may hand back to the relying party. Pending means
// another issuer holds the claim and has not finished yet.
type Outcome struct {
	VC      string
	Issued  bool
	Pending bool
}

// Issue signs the credential once per session. Concurrent callers in this
// process share one attempt; callers in other processes are stopped by the
// guard and see the stored credential or Pending.
func (i *Issuer) Issue(ctx context.Context, in Input) (*Outcome, error) {
	if in.Session == nil || in.Completed == nil || in.Fields == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "incomplete issuance input")
	}
	if in.Session.State != models.StateAccessTokenIssued {
		return nil, dErrors.New(dErrors.CodeInvalidState, "session not ready for issuance")
	}

	// The shared attempt must outlive whichever caller started it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := i.flight.Do(in.Session.ID, func() (any, error) {
		return i.issue(flightCtx, in)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

// Existing reports a credential already issued (or in flight) for the session.
// It returns nil when nobody has claimed issuance.
func (i *Issuer) Existing(ctx context.Context, sessionID string) (*Outcome, error) {
	vc, found, err := i.guard.Lookup(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issuance guard unavailable")
	}
	if !found {
		return nil, nil
	}
	if vc == "" {
		return &Outcome{Pending: true}, nil
	}
	return &Outcome{VC: vc}, nil
}

func (i *Issuer) issue(ctx context.Context, in Input) (*Outcome, error) {
	sessionID := in.Session.ID

	claimed, existing, err := i.guard.Claim(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issuance guard unavailable")
	}
	if !claimed {
		i.metrics.IncIssuanceSkipped()
		if existing == "" {
			return &Outcome{Pending: true}, nil
		}
		return &Outcome{VC: existing}, nil
	}

	vc, result, err := i.sign(ctx, in)
	if err != nil {
		i.release(ctx, sessionID)
		return nil, err
	}
	if err := i.guard.Complete(ctx, sessionID, vc); err != nil {
		i.release(ctx, sessionID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credential")
	}

	if in.Deliver {
		i.deliver(ctx, in.Session, vc)
	}
	i.emitIssued(ctx, in.Session, result)
	i.metrics.IncCredentialsIssued(result.Evidence.CI)

	return &Outcome{VC: vc, Issued: true}, nil
}

func (i *Issuer) sign(ctx context.Context, in Input) (string, *engine.Result, error) {
	result, err := engine.Assemble(engine.Input{
		DocumentType:    in.Completed.DocumentType,
		IssuingCountry:  in.Completed.IssuingCountry,
		Checks:          in.Completed.Checks,
		Fields:          *in.Fields,
		VendorSessionID: in.Completed.SessionID,
		FallbackName:    in.Session.Person.PrimaryName(),
	})
	if err != nil {
		return "", nil, evidenceError(err)
	}

	now := requestcontext.Now(ctx)
	claims := Claims{
		VC: VerifiableCredential{
			Context:           vcContext,
			Type:              vcType,
			CredentialSubject: result.CredentialSubject,
			Evidence:          []evmodels.Evidence{result.Evidence},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.signer.Issuer(),
			Subject:   in.Session.Subject,
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        "urn:uuid:" + uuid.NewString(),
		},
	}

	vc, err := i.signer.Sign(claims)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}
	return vc, result, nil
}

func evidenceError(err error) error {
	switch {
	case errors.Is(err, engine.ErrMissingChecks):
		return dErrors.Wrap(err, dErrors.CodeIncompleteEvidence, "missing mandatory checks")
	case errors.Is(err, engine.ErrChecksIncomplete):
		return dErrors.Wrap(err, dErrors.CodeIncompleteEvidence, "checks not all completed")
	case errors.Is(err, engine.ErrUnsupportedDocument):
		return dErrors.Wrap(err, dErrors.CodeIncompleteEvidence, "unsupported document")
	case errors.Is(err, engine.ErrMissingName):
		return dErrors.Wrap(err, dErrors.CodeIncompleteEvidence, "document name missing")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assemble evidence")
}

func (i *Issuer) release(ctx context.Context, sessionID string) {
	if err := i.guard.Release(ctx, sessionID); err != nil {
		i.logger.ErrorContext(ctx, "failed to release issuance claim",
			"error", err,
			"session_id", sessionID,
		)
	}
}

// deliver is best effort: the credential stays retrievable from /userinfo.
func (i *Issuer) deliver(ctx context.Context, session *models.Session, vc string) {
	if i.delivery == nil {
		return
	}
	msg := DeliveryMessage{
		Sub:           session.Subject,
		State:         session.OAuthState,
		CredentialJWT: []string{vc},
	}
	if err := i.delivery.PublishJSON(ctx, i.deliveryTopic, session.ID, msg); err != nil {
		i.logger.ErrorContext(ctx, "failed to deliver credential",
			"error", err,
			"session_id", session.ID,
		)
	}
}

func (i *Issuer) emitIssued(ctx context.Context, session *models.Session, result *engine.Result) {
	if i.auditor == nil {
		return
	}
	subject := result.CredentialSubject
	restricted := map[string]any{
		"name":      subject.Name,
		"birthDate": subject.BirthDate,
	}
	if key, block := subject.DocumentBlock(); key != "" {
		restricted[key] = block
	}

	i.auditor.Emit(ctx, audit.Event{
		EventName:   audit.EventVCIssued,
		ClientID:    session.ClientID,
		ComponentID: i.signer.Issuer(),
		User:        session.AuditUser(),
		Restricted:  restricted,
		Extensions: map[string]any{
			"previous_govuk_signin_journey_id": session.ClientSessionID,
			"evidence": []auditEvidence{{
				Evidence:  result.Evidence,
				CIReasons: result.RejectionReasons,
			}},
		},
	})
}
