package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	token, exp, err := m.Issue(42, "editor@example.com", "editor")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "editor@example.com", claims.Email)
	assert.Equal(t, "editor", claims.Role)
	assert.NotEmpty(t, claims.JWTID)
}

func TestTokenTampering(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	token, _, err := m.Issue(1, "a@example.com", "viewer")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged, _, _ := m.Issue(1, "a@example.com", "super_admin")
	forgedParts := strings.Split(forged, ".")

	// Swap in claims from another token while keeping the original signature.
	_, err = m.Parse(parts[0] + "." + forgedParts[1] + "." + parts[2])
	assert.ErrorIs(t, err, ErrInvalidSignature)

	other := NewTokenManager("another-secret-key-32-bytes-long!", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestTokenMalformed(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "e30.e30.e30"} {
		_, err := m.Parse(tok)
		assert.Truef(t, errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrInvalidSignature),
			"Parse(%q) error = %v", tok, err)
	}
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute)
	issued := time.Now().Add(-2 * time.Minute)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(7, "x@example.com", "admin")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer   abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractBearer(tt.header); got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
