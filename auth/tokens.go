package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token has been revoked")
	ErrEmptySecret  = errors.New("jwt secret is required")
)

// Claims carried by every access token. The token ID is used for revocation.
type Claims struct {
	UserID  uint `json:"uid"`
	IsAdmin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs, parses and revokes HS256 access tokens
type Issuer struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
}

func NewIssuer(secret string, ttl time.Duration, revoked RevocationStore) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}

	return &Issuer{secret: []byte(secret), ttl: ttl, revoked: revoked}, nil
}

func (i *Issuer) Issue(userID uint, isAdmin bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse validates the signature, expiry and revocation state of a token.
func (i *Issuer) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}

	revoked, err := i.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// Revoke rejects the token until it would have expired anyway.
func (i *Issuer) Revoke(ctx context.Context, tokenString string) error {
	claims, err := i.Parse(ctx, tokenString)
	if err != nil {
		return err
	}

	until := time.Now().Add(i.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	return i.revoked.Revoke(ctx, claims.ID, until)
}
