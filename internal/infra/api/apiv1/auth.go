package apiv1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
	errAuthDisabled = errors.New("admin api disabled")
)

const adminRole = "admin"

// AuthManager mints and verifies short-lived admin bearer tokens. Tokens are
// obtained by presenting the static admin API key to POST /token.
type AuthManager struct {
	secret []byte
	apiKey string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthManager(secret, apiKey string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(secret), apiKey: apiKey, ttl: ttl, now: time.Now}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Enabled reports whether both the signing secret and the API key are set.
func (a *AuthManager) Enabled() bool { return len(a.secret) > 0 && a.apiKey != "" }

// CheckAPIKey compares in constant time.
func (a *AuthManager) CheckAPIKey(key string) bool {
	if a.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.apiKey), []byte(key)) == 1
}

func (a *AuthManager) Mint(subject string) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, errAuthDisabled
	}
	now := a.now()
	exp := now.Add(a.ttl)
	claims := AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			Subject:   subject,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// bearer extracts the token from "Authorization: Bearer <jwt>".
func bearer(r *http.Request) (string, error) {
	hdr := strings.TrimSpace(r.Header.Get("Authorization"))
	if hdr == "" {
		return "", errMissingToken
	}
	scheme, tok, ok := strings.Cut(hdr, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(tok), nil
}

func (a *AuthManager) Parse(tok string) (*AdminClaims, error) {
	if !a.Enabled() {
		return nil, errAuthDisabled
	}
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if len(a.secret) == 0 {
			return nil, errAuthDisabled
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !tkn.Valid || claims.Role != adminRole {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Guard answers 403 while the admin API is not configured, 401 without
// credentials and 403 for a token that does not verify.
func (a *AuthManager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			writeError(w, http.StatusForbidden, "admin api disabled")
			return
		}
		tok, err := bearer(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := a.Parse(tok); err != nil {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
