package utils // package utils provides helpers for session tokens, hashing and random codes

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are carried by the access token cookie.
type SessionClaims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Superuser bool   `json:"su,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c SessionClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken is a signed JWT and its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a random opaque token.  Only its SHA-256 hash is stored.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// ErrTokenInvalid is returned by ParseAccessToken for any token that does
// not verify, including expired ones.
var ErrTokenInvalid = errors.New("invalid access token")

// NewAccessToken signs an HS256 JWT for the user valid for ttl from now.
func NewAccessToken(secret string, userID uint64, username, role string, superuser bool, now time.Time, ttl time.Duration) (AccessToken, error) {
	exp := now.UTC().Add(ttl)
	claims := SessionClaims{
		Username:  username,
		Role:      role,
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now.UTC()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.
// now is used as the verification time.
func ParseAccessToken(secret, raw string, now time.Time) (SessionClaims, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return SessionClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// NewRefreshToken returns 48 random bytes hex encoded, valid for ttl.
func NewRefreshToken(now time.Time, ttl time.Duration) (RefreshToken, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: hex.EncodeToString(buf), Exp: now.UTC().Add(ttl)}, nil
}

// HashRefreshRaw returns the hex SHA-256 of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
