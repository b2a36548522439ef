package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
)

const tokenIssuer = "fabled"

// SessionClaims captures the validated contents of a session token.
type SessionClaims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims is the internal claims type used for JWT signing and parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// MintToken issues a signed session token for the user.
func (s *Service) MintToken(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user id is required")
	}
	tokenID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := s.now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns its claims.
func (s *Service) VerifyToken(token string) (SessionClaims, error) {
	if token == "" {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionInvalid, "session token is required")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return SessionClaims{}, mapJWTError(err)
	}

	if parsed.Issuer != tokenIssuer {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionInvalid, "session issuer mismatch")
	}
	if parsed.Subject == "" {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionInvalid, "session subject is required")
	}
	if parsed.ExpiresAt == nil {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionInvalid, "session exp is required")
	}

	now := s.now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return SessionClaims{}, apperrors.New(apperrors.CodeSessionInvalid, "session is expired")
	}

	claims := SessionClaims{
		UserID:    parsed.Subject,
		TokenID:   parsed.ID,
		ExpiresAt: exp,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.New(apperrors.CodeSessionInvalid, "session signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) || errors.Is(err, jwt.ErrTokenMalformed) {
		return apperrors.New(apperrors.CodeSessionInvalid, "session token is malformed")
	}
	return apperrors.Wrap(apperrors.CodeSessionInvalid, "parse session token", err)
}
