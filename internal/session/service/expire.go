package service

import (
	"context"
	"errors"
	"fmt"

	"f2f-cri/internal/credential"
	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/sentinel"
	"f2f-cri/pkg/requestcontext"
)

var expirableStates = []models.State{
	models.StateVendorSessionCreated,
	models.StateAuthCodeIssued,
	models.StateAccessTokenIssued,
}

// ExpireSessions tells the relying party about every journey whose branch
// visit window has closed without a credential. Each session is notified at
// most once; a failed publish leaves it for the next sweep. It returns how
// many notices were sent.
func (s *Service) ExpireSessions(ctx context.Context) (int, error) {
	if s.notifier == nil {
		return 0, errors.New("expire sessions: no notifier configured")
	}

	cutoff := requestcontext.Now(ctx).Add(-(s.cfg.VendorSessionTTL + expiryGrace))
	sessions, err := s.sessions.ListByStates(ctx, expirableStates, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("list expirable sessions: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, session := range sessions {
		notified, err := s.expire(ctx, session)
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		if notified {
			sent++
		}
	}
	s.logger.InfoContext(ctx, "expired sessions swept",
		"candidates", len(sessions),
		"notified", sent,
		"failed", len(errs),
	)
	return sent, errors.Join(errs...)
}

// expire marks one session notified, publishing the notice first unless a
// credential was already issued for it.
func (s *Service) expire(ctx context.Context, session *models.Session) (bool, error) {
	existing, err := s.issuer.Existing(ctx, session.ID)
	if err != nil {
		return false, err
	}

	notify := existing == nil
	if notify {
		notice := credential.NewExpiryNotice(session.Subject, session.OAuthState)
		if err := s.notifier.PublishJSON(ctx, s.cfg.DeliveryTopic, session.ID, notice); err != nil {
			return false, fmt.Errorf("publish expiry notice: %w", err)
		}
	}

	_, err = s.sessions.Execute(ctx, session.ID,
		func(current *models.Session) error {
			if current.ExpiryNotified {
				return sentinel.ErrAlreadyUsed
			}
			return nil
		},
		func(current *models.Session) {
			current.ExpiryNotified = true
		},
	)
	if err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	if notify {
		s.metrics.IncExpiryNotices()
	}
	return notify, nil
}
