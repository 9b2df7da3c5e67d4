// Package auth implements HMAC-signed cookie sessions for the storefront.
// The cookie carries the usuario id plus a signature; RequireAuth gates the
// JSON API (this service has no HTML surface, unauthenticated calls always
// get 401).
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quimifarma/pedidos-app/internal/httpx"
)

type ctxKey string

const (
	cookieSesion    = "session"
	usuarioIDCtxKey = ctxKey("usuarioID")
	duracionSesion  = 14 * 24 * time.Hour
)

// UserVerifier validates that a session's usuario still exists. nil skips
// the check.
type UserVerifier func(ctx context.Context, uid uint) bool

// Auth holds the session middleware chain. Constructed once in the router
// with the verifier injected; no package-level mutable state.
type Auth struct {
	Verifier UserVerifier
}

func New(v UserVerifier) *Auth { return &Auth{Verifier: v} }

// Secret returns SESSION_SECRET or a dev default.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func firmar(uidStr string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(uidStr))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets the signed session cookie.
func CreateSession(w http.ResponseWriter, usuarioID uint) {
	uidStr := strconv.FormatUint(uint64(usuarioID), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieSesion,
		Value:    uidStr + "." + firmar(uidStr),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(duracionSesion),
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieSesion, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the usuario id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(cookieSesion)
	if err != nil || c.Value == "" {
		return 0, false
	}
	partes := strings.Split(c.Value, ".")
	if len(partes) != 2 {
		return 0, false
	}
	uidStr, sig := partes[0], partes[1]
	if !hmac.Equal([]byte(sig), []byte(firmar(uidStr))) {
		return 0, false
	}
	id64, err := strconv.ParseUint(uidStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// WithUsuarioID stores the usuario id in the context.
func WithUsuarioID(ctx context.Context, usuarioID uint) context.Context {
	return context.WithValue(ctx, usuarioIDCtxKey, usuarioID)
}

// UsuarioIDFromContext extracts the usuario id.
func UsuarioIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(usuarioIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches the usuario id to the request context when a valid
// session cookie is present.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			r = r.WithContext(WithUsuarioID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects unauthenticated requests with 401 JSON. A session whose
// usuario no longer passes the verifier is cleared on the spot.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UsuarioIDFromContext(r.Context())
		if !ok || uid == 0 {
			httpx.JSONError(w, http.StatusUnauthorized, "no_autenticado", nil)
			return
		}
		if a.Verifier != nil && !a.Verifier(r.Context(), uid) {
			ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "no_autenticado", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
