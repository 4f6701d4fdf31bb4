package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeInvalidState, Message: "session not in expected state"}
		s.Equal("session not in expected state", err.Error())
	})

	s.Run("falls back to code", func() {
		err := &Error{Code: CodeSessionExpired}
		s.Equal("session_expired", err.Error())
	})
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	a := New(CodeVendorUnavailable, "vendor returned 503")
	b := New(CodeVendorUnavailable, "vendor timed out")
	s.ErrorIs(a, b)
	s.NotErrorIs(a, New(CodeVendorFailure, ""))

	s.Run("through fmt wrapping", func() {
		wrapped := fmt.Errorf("select document: %w", a)
		s.True(errors.Is(wrapped, &Error{Code: CodeVendorUnavailable}))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesExistingCode() {
	inner := New(CodeIncompleteEvidence, "checks not all completed")
	wrapped := Wrap(inner, CodeInternal, "evidence assembly failed")

	s.True(HasCode(wrapped, CodeIncompleteEvidence))
	s.Equal("evidence assembly failed", wrapped.Error())
	s.ErrorIs(wrapped, inner)
}

func (s *DomainErrorsSuite) TestWrapPlainError() {
	root := errors.New("connection refused")
	wrapped := Wrap(root, CodeVendorFailure, "vendor call failed")

	s.True(HasCode(wrapped, CodeVendorFailure))
	s.ErrorIs(wrapped, root)
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeInvalidGrant, CodeOf(fmt.Errorf("token: %w", New(CodeInvalidGrant, "code used"))))
	s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	s.False(HasCode(nil, CodeInternal))
}
