// Package identity authenticates dashboard operators. Credentials are
// config-backed; there is no user database.
package identity

import (
	"context"
	"errors"

	"github.com/opsdeck/opsdeck/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login fails. The message does not
// distinguish unknown emails from bad passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements operator authentication.
type Service struct {
	operators map[string]domain.Operator
	issuer    *TokenIssuer
}

// NewService creates the identity service from configured operators.
func NewService(operators []domain.Operator, issuer *TokenIssuer) *Service {
	byEmail := make(map[string]domain.Operator, len(operators))
	for _, op := range operators {
		byEmail[op.Email] = op
	}
	return &Service{operators: byEmail, issuer: issuer}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(_ context.Context, email, password string) (string, error) {
	op, ok := s.operators[email]
	if !ok {
		// Burn a comparison anyway so unknown emails cost the same as bad
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGyUvPIgJWrJ1qGHlYeFkLbUKnv0Oa2e"), []byte(password))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issuer.Issue(op.Email, op.Role)
}

// ValidateToken implements httputil.TokenValidator.
func (s *Service) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	return s.issuer.Validate(token)
}

// HashPassword produces a bcrypt hash for configuration bootstrap.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
