// Copyright 2026 The DashGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Domain errors
var (
	ErrInvalidSignature = errors.New("token signature verification failed")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
	ErrWrongKind        = errors.New("wrong token kind")
)

// Kind distinguishes the two token lifetimes issued by the service.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the self-contained claim set carried by every token.
// Role is present only on access tokens; a refresh token deliberately omits
// it because the role may change between issuance and use.
type Claims struct {
	Role string `json:"role,omitempty"`
	Kind Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Config holds the process-wide signing configuration. It is constructed
// once at startup and never mutated; rotating the secret invalidates every
// outstanding token, which stands in for a revocation list.
type Config struct {
	Secret     []byte
	Algorithm  string // HMAC family: HS256, HS384, HS512
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service issues and validates signed bearer tokens. It is stateless and
// safe for concurrent use.
type Service struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService creates a token service. The clock defaults to time.Now.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("token: unknown signing algorithm %q", cfg.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("token: algorithm %q is not an HMAC method", cfg.Algorithm)
	}

	return &Service{
		secret:     cfg.Secret,
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the service clock. Expiration checks read this clock
// exactly once per call, which keeps tests deterministic.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueAccessToken signs a short-lived token carrying the subject and role.
func (s *Service) IssueAccessToken(userID, role string) (string, error) {
	now := s.now()
	return s.sign(Claims{
		Role: role,
		Kind: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
}

// IssueRefreshToken signs a long-lived token carrying only the subject.
func (s *Service) IssueRefreshToken(userID string) (string, error) {
	now := s.now()
	return s.sign(Claims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
}

func (s *Service) sign(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(s.method, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token string and checks that it is the
// expected kind. A token is valid iff its signature verifies, it is
// unexpired, and its kind matches the operation requesting it.
func (s *Service) Validate(tokenString string, expected Kind) (*Claims, error) {
	// One consistent "now" per validation call.
	now := s.now()

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != s.method.Alg() {
				return nil, ErrInvalidSignature
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if claims.Subject == "" || claims.Kind == "" {
		return nil, ErrMalformed
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}

	return claims, nil
}
