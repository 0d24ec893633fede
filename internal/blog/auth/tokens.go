package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
)

// tokenTTL bounds how long an issued session token stays valid.
const tokenTTL = 24 * time.Hour

// Claims carries the authenticated identity embedded in a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// TokenService issues and verifies HMAC-signed session tokens.
//
// Verification is purely cryptographic; no store lookup happens, so a token
// stays valid until expiry even if the account changes afterwards.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService builds a token service signing with the provided secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    tokenTTL,
		now:    time.Now,
	}
}

// Issue signs a token for the user that expires after the service TTL.
func (s *TokenService) Issue(userID int64, username string) (string, error) {
	if s == nil || len(s.secret) == 0 {
		return "", apperrors.New(apperrors.CodeUnknown, "token signer is not configured")
	}

	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   userID,
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "sign token", err)
	}
	return signed, nil
}

// Verify parses a signed token and returns its claims.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	if s == nil || len(s.secret) == 0 {
		return Claims{}, apperrors.New(apperrors.CodeUnknown, "token signer is not configured")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.Wrap(apperrors.CodeInvalidToken, "token is expired", err)
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return apperrors.Wrap(apperrors.CodeInvalidToken, "token signature is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeInvalidToken, "token is invalid", err)
}
