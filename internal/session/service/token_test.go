package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"f2f-cri/internal/session/models"
	dErrors "f2f-cri/pkg/domain-errors"
)

func (s *ServiceSuite) tokenRequest(code string) *models.TokenRequest {
	return &models.TokenRequest{
		GrantType:           "authorization_code",
		Code:                code,
		RedirectURI:         testRedirectURI,
		ClientAssertionType: "urn:ietf:params:oauth:client-assertion-type:jwt-bearer",
		ClientAssertion:     s.clientAssertion(),
	}
}

func (s *ServiceSuite) TestExchangeToken() {
	sess := s.seed(models.StateAuthCodeIssued)

	res, err := s.service.ExchangeToken(s.ctx, s.tokenRequest(sess.AuthorizationCode))
	s.Require().NoError(err)
	s.Equal("Bearer", res.TokenType)
	s.Equal(3600, res.ExpiresIn)

	claims, err := s.signer.ValidateAccessToken(s.ctx, res.AccessToken)
	s.Require().NoError(err)
	s.Equal(sess.ID, claims.Subject)

	stored := s.reload(sess.ID)
	s.Equal(models.StateAccessTokenIssued, stored.State)
	s.Empty(stored.AuthorizationCode)
	s.Equal(res.AccessToken, stored.AccessToken)
}

func (s *ServiceSuite) TestExchangeTokenCodeIsSingleUse() {
	sess := s.seed(models.StateAuthCodeIssued)

	_, err := s.service.ExchangeToken(s.ctx, s.tokenRequest(sess.AuthorizationCode))
	s.Require().NoError(err)

	_, err = s.service.ExchangeToken(s.ctx, s.tokenRequest(sess.AuthorizationCode))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant), "got %v", err)
}

func (s *ServiceSuite) TestExchangeTokenRefused() {
	s.Run("unknown code", func() {
		_, err := s.service.ExchangeToken(s.ctx, s.tokenRequest(uuid.NewString()))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
	})

	s.Run("redirect mismatch", func() {
		sess := s.seed(models.StateAuthCodeIssued)
		req := s.tokenRequest(sess.AuthorizationCode)
		req.RedirectURI = "https://elsewhere.example/cb"

		_, err := s.service.ExchangeToken(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
		s.Equal(models.StateAuthCodeIssued, s.reload(sess.ID).State)
	})

	s.Run("assertion for another audience", func() {
		sess := s.seed(models.StateAuthCodeIssued)
		req := s.tokenRequest(sess.AuthorizationCode)
		req.ClientAssertion = s.signWithClientKey(jwt.RegisteredClaims{
			Issuer:    testClientID,
			Subject:   testClientID,
			Audience:  jwt.ClaimStrings{"https://other.example"},
			ExpiresAt: jwt.NewNumericDate(s.now.Add(time.Minute)),
			ID:        uuid.NewString(),
		})

		_, err := s.service.ExchangeToken(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidClient), "got %v", err)
	})

	s.Run("expired code", func() {
		sess := s.seed(models.StateAuthCodeIssued, func(m *models.Session) {
			m.AuthorizationCodeExpiry = s.now.Add(-time.Second).Unix()
		})

		_, err := s.service.ExchangeToken(s.ctx, s.tokenRequest(sess.AuthorizationCode))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidGrant))
		s.Equal(models.StateAuthCodeIssued, s.reload(sess.ID).State)
	})

	s.Run("wrong grant type", func() {
		req := s.tokenRequest(uuid.NewString())
		req.GrantType = "client_credentials"

		_, err := s.service.ExchangeToken(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
	})
}
