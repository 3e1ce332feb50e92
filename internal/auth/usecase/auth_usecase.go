package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	serviceIssuer = "portal-backend"
	dispatchScope = "notifications:dispatch"
)

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrServiceTokensDisabled = errors.New("service tokens disabled: SERVICE_TOKEN_SECRET not set")
)

// TokenVerifier verifies Firebase ID tokens; *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthUsecase identifies employees and internal callers
type AuthUsecase interface {
	// VerifyUserToken returns the Firebase uid of the token's owner
	VerifyUserToken(ctx context.Context, idToken string) (string, error)
	IssueServiceToken(subject string, ttl time.Duration) (string, error)
	// VerifyServiceToken returns the calling service's name
	VerifyServiceToken(tokenString string) (string, error)
}

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	verifier      TokenVerifier
	serviceSecret []byte
	now           func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase. verifier may be nil when
// Firebase is not configured; user tokens are then rejected.
func NewAuthUsecase(verifier TokenVerifier, serviceSecret string) AuthUsecase {
	return &authUsecase{
		verifier:      verifier,
		serviceSecret: []byte(serviceSecret),
		now:           time.Now,
	}
}

func (u *authUsecase) VerifyUserToken(ctx context.Context, idToken string) (string, error) {
	if u.verifier == nil || idToken == "" {
		return "", ErrInvalidToken
	}

	token, err := u.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if token.UID == "" {
		return "", ErrInvalidToken
	}
	return token.UID, nil
}

func (u *authUsecase) IssueServiceToken(subject string, ttl time.Duration) (string, error) {
	if len(u.serviceSecret) == 0 {
		return "", ErrServiceTokensDisabled
	}
	if subject == "" {
		return "", errors.New("service token subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("service token ttl must be positive")
	}

	now := u.now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"iss":   serviceIssuer,
		"scope": dispatchScope,
		"jti":   uuid.New().String(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(u.serviceSecret)
}

func (u *authUsecase) VerifyServiceToken(tokenString string) (string, error) {
	if len(u.serviceSecret) == 0 {
		return "", ErrServiceTokensDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return u.serviceSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(serviceIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if scope, _ := claims["scope"].(string); scope != dispatchScope {
		return "", ErrInvalidToken
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
