package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
)

const tokenIssuer = "kpp-admin"

// tokenHeader is fixed; tokens with any other header are rejected.
var tokenHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Claims is the payload of an admin bearer token.
type Claims struct {
	Issuer    string `json:"iss"`
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	NotBefore int64  `json:"nbf"`
	IssuedAt  int64  `json:"iat"`
	JWTID     string `json:"jti"`

	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Valid checks the time-based claims against now.
func (c *Claims) Valid(now time.Time) error {
	if c.Issuer != tokenIssuer {
		return ErrInvalidToken
	}
	if c.ExpiresAt == 0 || now.Unix() >= c.ExpiresAt {
		return ErrTokenExpired
	}
	// One minute of leeway for clock skew between instances.
	if c.NotBefore != 0 && now.Unix()+60 < c.NotBefore {
		return ErrTokenNotYetValid
	}
	return nil
}

// TokenManager signs and verifies HMAC-SHA256 bearer tokens.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenManager creates a manager. The signing key is derived from secret
// so the raw secret used for cookies is never used directly as a MAC key.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("kpp admin token v1"))
	return &TokenManager{
		key: mac.Sum(nil),
		ttl: ttl,
		now: time.Now,
	}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed token for a user. It returns the token and its expiry.
func (m *TokenManager) Issue(userID int64, email, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Issuer:    tokenIssuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: exp.Unix(),
		NotBefore: now.Unix(),
		IssuedAt:  now.Unix(),
		JWTID:     uuid.NewString(),
		Email:     email,
		Role:      role,
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshalling claims: %w", err)
	}

	message := tokenHeader + "." + base64URLEncode(claimsJSON)
	return message + "." + base64URLEncode(m.sign(message)), exp, nil
}

// Parse verifies the signature and time claims of a token.
func (m *TokenManager) Parse(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != tokenHeader {
		return nil, ErrInvalidToken
	}

	sig, err := base64URLDecode(parts[2])
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal(sig, m.sign(parts[0]+"."+parts[1])) {
		return nil, ErrInvalidSignature
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if err := claims.Valid(m.now()); err != nil {
		return nil, err
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (m *TokenManager) sign(message string) []byte {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// ExtractBearer returns the token from an Authorization header value, or ""
// when the header is missing or uses another scheme.
func ExtractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
