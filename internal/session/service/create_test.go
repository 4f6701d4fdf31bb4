package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"

	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
	"f2f-cri/pkg/platform/audit"
)

func (s *ServiceSuite) requestObject(mutate ...func(jwt.MapClaims)) string {
	claims := jwt.MapClaims{
		"iss":                     testClientID,
		"client_id":               testClientID,
		"aud":                     testIssuer,
		"exp":                     s.now.Add(5 * time.Minute).Unix(),
		"sub":                     testSubject,
		"state":                   "xyz",
		"redirect_uri":            testRedirectURI,
		"govuk_signin_journey_id": "journey-1",
		"persistent_session_id":   "persistent-1",
		"shared_claims": map[string]any{
			"name": []any{map[string]any{"nameParts": []any{
				map[string]any{"type": "GivenName", "value": "Frederick"},
				map[string]any{"type": "FamilyName", "value": "Flintstone"},
			}}},
			"birthDate":    []any{map[string]any{"value": "1960-02-02"}},
			"emailAddress": "fred@example.com",
		},
	}
	for _, m := range mutate {
		m(claims)
	}
	return s.signWithClientKey(claims)
}

func (s *ServiceSuite) createdSessions() []*models.Session {
	sessions, err := s.store.ListByStates(s.ctx, []models.State{models.StateCreated}, s.now.Add(time.Hour).Unix())
	s.Require().NoError(err)
	return sessions
}

func (s *ServiceSuite) TestCreateSession() {
	s.Run("stores the journey and emits start", func() {
		var emitted audit.Event
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventStart)).
			Do(func(_ context.Context, e audit.Event) { emitted = e })

		res, err := s.service.CreateSession(s.ctx, &models.CreateSessionRequest{
			ClientID: testClientID,
			Request:  s.requestObject(),
		})
		s.Require().NoError(err)
		s.Equal("xyz", res.State)
		s.Equal(testRedirectURI, res.RedirectURI)

		stored := s.reload(res.SessionID)
		s.Equal(models.StateCreated, stored.State)
		s.Equal("journey-1", stored.ClientSessionID)
		s.Equal("persistent-1", stored.PersistentSessionID)
		s.Equal(testSubject, stored.Subject)
		s.Equal(s.now.Add(time.Hour).Unix(), stored.ExpiryDate)
		s.Equal("Frederick Flintstone", stored.Person.PrimaryName().Full())
		s.Equal("fred@example.com", stored.Person.EmailAddress)

		s.Equal(res.SessionID, emitted.User.SessionID)
		s.Equal(testSubject, emitted.User.UserID)
		s.Equal("journey-1", emitted.User.GovukSigninJourneyID)
		s.Equal(testIssuer, emitted.ComponentID)
	})

	s.Run("each call opens a new session", func() {
		s.mockAuditor.EXPECT().Emit(gomock.Any(), eventNamed(audit.EventStart)).Times(2)
		req := &models.CreateSessionRequest{ClientID: testClientID, Request: s.requestObject()}

		first, err := s.service.CreateSession(s.ctx, req)
		s.Require().NoError(err)
		second, err := s.service.CreateSession(s.ctx, req)
		s.Require().NoError(err)
		s.NotEqual(first.SessionID, second.SessionID)
	})
}

func (s *ServiceSuite) TestCreateSessionRejects() {
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)

	cases := []struct {
		name string
		req  func() *models.CreateSessionRequest
		code dErrors.Code
	}{
		{
			name: "unknown client",
			req: func() *models.CreateSessionRequest {
				return &models.CreateSessionRequest{ClientID: "stranger", Request: s.requestObject()}
			},
			code: dErrors.CodeUnauthorized,
		},
		{
			name: "request signed by another key",
			req: func() *models.CreateSessionRequest {
				token, err := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
					"aud": testIssuer,
					"exp": s.now.Add(time.Minute).Unix(),
				}).SignedString(otherKey)
				s.Require().NoError(err)
				return &models.CreateSessionRequest{ClientID: testClientID, Request: token}
			},
			code: dErrors.CodeUnauthorized,
		},
		{
			name: "request for another client",
			req: func() *models.CreateSessionRequest {
				return &models.CreateSessionRequest{ClientID: testClientID, Request: s.requestObject(func(c jwt.MapClaims) {
					c["client_id"] = "someone-else"
				})}
			},
			code: dErrors.CodeUnauthorized,
		},
		{
			name: "name without family part",
			req: func() *models.CreateSessionRequest {
				return &models.CreateSessionRequest{ClientID: testClientID, Request: s.requestObject(func(c jwt.MapClaims) {
					c["shared_claims"].(map[string]any)["name"] = []any{map[string]any{"nameParts": []any{
						map[string]any{"type": "GivenName", "value": "Frederick"},
					}}}
				})}
			},
			code: dErrors.CodeValidation,
		},
		{
			name: "missing email",
			req: func() *models.CreateSessionRequest {
				return &models.CreateSessionRequest{ClientID: testClientID, Request: s.requestObject(func(c jwt.MapClaims) {
					delete(c["shared_claims"].(map[string]any), "emailAddress")
				})}
			},
			code: dErrors.CodeValidation,
		},
		{
			name: "unregistered redirect uri",
			req: func() *models.CreateSessionRequest {
				return &models.CreateSessionRequest{ClientID: testClientID, Request: s.requestObject(func(c jwt.MapClaims) {
					c["redirect_uri"] = "https://evil.example/callback"
				})}
			},
			code: dErrors.CodeValidation,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateSession(s.ctx, tc.req())
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tc.code), "got %v", err)
			s.Empty(s.createdSessions(), "nothing is written")
		})
	}
}
