// internal/httpserver/auth.go
//
// Session tokens.
// POST /env/new hands out an HS256 JWT whose subject is the session id;
// every other /env route requires it as a bearer token (or ?token= for the
// websocket, where browsers cannot set headers).

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/woodoku-env/internal/store"
)

// tokenIssuer signs and verifies session tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// sign creates a token for sessionID expiring after the configured TTL.
func (t tokenIssuer) sign(sessionID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// verify returns the session id carried by a valid token.
func (t tokenIssuer) verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !tok.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// bearerOrQuery extracts a token from the Authorization header or ?token=.
func bearerOrQuery(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return r.URL.Query().Get("token")
}

// ctxSessionKey is the context key type for storing the *store.Session.
type ctxSessionKey struct{}

func sessionFrom(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(ctxSessionKey{}).(*store.Session)
	return sess
}

// authenticate resolves the request's token to a live session.
func (s *Server) authenticate(r *http.Request) (*store.Session, string) {
	raw := bearerOrQuery(r)
	if raw == "" {
		return nil, "unauthorized"
	}
	id, err := s.tokens.verify(raw)
	if err != nil {
		return nil, "invalid_token"
	}
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, "session_not_found"
	}
	return sess, ""
}

// requireSession enforces a valid token and injects the session into the
// request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, code := s.authenticate(r)
		if sess == nil {
			http.Error(w, `{"error":"`+code+`"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
