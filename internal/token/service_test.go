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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, at func() time.Time) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:     []byte("test-secret-0123456789abcdef"),
		Algorithm:  "HS256",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return svc.WithClock(at)
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	_, err := NewService(Config{Algorithm: "HS256"})
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewService(Config{Secret: []byte("x"), Algorithm: "bogus"})
	assert.Error(t, err)

	_, err = NewService(Config{Secret: []byte("x"), Algorithm: "RS256"})
	assert.Error(t, err, "non-HMAC algorithms are not supported")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	tok, err := svc.IssueAccessToken("user-1", "editor")
	require.NoError(t, err)

	claims, err := svc.Validate(tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, t0.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestRefreshTokenOmitsRole(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	tok, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := svc.Validate(tok, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Empty(t, claims.Role)
	assert.Equal(t, t0.Add(7*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return now })

	tok, err := svc.IssueAccessToken("user-1", "viewer")
	require.NoError(t, err)

	// Still valid right at the expiration boundary minus a second.
	now = now.Add(30*time.Minute - time.Second)
	_, err = svc.Validate(tok, KindAccess)
	require.NoError(t, err)

	// One second past TTL fails with ErrExpired.
	now = now.Add(2 * time.Second)
	_, err = svc.Validate(tok, KindAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestWrongKind(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.Validate(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)

	access, err := svc.IssueAccessToken("user-1", "admin")
	require.NoError(t, err)

	_, err = svc.Validate(access, KindRefresh)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestTamperedSignature(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	tok, err := svc.IssueAccessToken("user-1", "admin")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// Flip one byte of the signature segment.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Validate(tampered, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTamperedClaimsRejected(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	tok, err := svc.IssueAccessToken("user-1", "viewer")
	require.NoError(t, err)

	// Splice the claims of one token onto the signature of another.
	admin, err := svc.IssueAccessToken("user-2", "admin")
	require.NoError(t, err)

	a := strings.Split(tok, ".")
	b := strings.Split(admin, ".")
	spliced := a[0] + "." + b[1] + "." + a[2]

	_, err = svc.Validate(spliced, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMalformedTokens(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	for _, bad := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := svc.Validate(bad, KindAccess)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", bad)
	}
}

func TestSecretRotationInvalidatesTokens(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, func() time.Time { return t0 })

	tok, err := svc.IssueAccessToken("user-1", "admin")
	require.NoError(t, err)

	rotated, err := NewService(Config{
		Secret:     []byte("a-completely-different-secret"),
		Algorithm:  "HS256",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	rotated = rotated.WithClock(func() time.Time { return t0 })

	_, err = rotated.Validate(tok, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
