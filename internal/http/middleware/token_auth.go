package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// SessionCookieName is the browser session cookie set after a successful
// token check.
const SessionCookieName = "access_token"

// TokenAuth guards the operator surface with the shared debug token. Three
// carriers are accepted in order: the X-Debug-Token header, a token query
// parameter, and the session cookie. The first carrier present decides; the
// cookie holds an HMAC-signed JWT rather than the raw token.
type TokenAuth struct {
	token      string
	user       string
	sessionKey []byte
	ttl        time.Duration
	logger     *logging.Logger
}

// NewTokenAuth builds the guard. An empty token disables the protected
// surface entirely (every check fails). sessionKey falls back to the token
// itself so a single env var is enough for demos.
func NewTokenAuth(token, user, sessionKey string, ttl time.Duration, logger *logging.Logger) *TokenAuth {
	if sessionKey == "" {
		sessionKey = token
	}
	if ttl <= 0 {
		ttl = 5 * 24 * time.Hour
	}
	return &TokenAuth{
		token:      token,
		user:       user,
		sessionKey: []byte(sessionKey),
		ttl:        ttl,
		logger:     logger.Named("token_auth"),
	}
}

// Enabled reports whether a token is configured.
func (a *TokenAuth) Enabled() bool {
	return a.token != ""
}

// Authorized checks the request's token carriers.
func (a *TokenAuth) Authorized(r *http.Request) bool {
	if a.token == "" {
		return false
	}
	if header := strings.TrimSpace(r.Header.Get("X-Debug-Token")); header != "" {
		return header == a.token
	}
	if query := strings.TrimSpace(r.URL.Query().Get("token")); query != "" {
		return query == a.token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return a.verifySession(strings.TrimSpace(cookie.Value))
	}
	return false
}

// Middleware rejects unauthorized requests on a protected subtree.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie mints the signed session JWT and attaches it, so browser
// clients keep access without re-pasting the token.
func (a *TokenAuth) SetSessionCookie(w http.ResponseWriter) {
	claims := jwt.RegisteredClaims{
		Subject:   a.user,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.sessionKey)
	if err != nil {
		a.logger.Error("session cookie mint failed", "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *TokenAuth) verifySession(tokenString string) bool {
	if tokenString == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.sessionKey, nil
	})
	return err == nil && token.Valid
}
