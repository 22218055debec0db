package middleware

import (
	"context"
	"net/http"
	"time"

	domainParent "clubhouse/internal/domain/parent"
)

const parentContextKey contextKey = "parent"

// ParentSession represents an authenticated parent portal session.
// Parents are not Accounts; they live in their own tables and their
// sessions are persisted server-side.
type ParentSession struct {
	SessionID string
	ParentID  string
	Email     string
	Name      string
}

// ParentSessionReader looks up persisted parent sessions by token.
type ParentSessionReader interface {
	GetByToken(ctx context.Context, token string) (domainParent.Session, error)
}

// ParentUserReader looks up parent users by ID.
type ParentUserReader interface {
	GetByID(ctx context.Context, id string) (domainParent.User, error)
}

const parentCookieName = "clubhouse_parent_session"

// ParentAuth returns middleware that resolves the parent session cookie
// against the database and sets the parent in context. Expired sessions
// are treated as absent; the sweeper removes them later.
// It does NOT block unauthenticated requests; use RequireParent for that.
func ParentAuth(sessions ParentSessionReader, users ParentUserReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(parentCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := sessions.GetByToken(r.Context(), cookie.Value)
			if err != nil || sess.IsExpired(time.Now()) {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.GetByID(r.Context(), sess.ParentID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), parentContextKey, ParentSession{
				SessionID: sess.ID,
				ParentID:  user.ID,
				Email:     user.Email,
				Name:      user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent returns middleware that blocks requests without a valid
// parent session.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetParentFromContext(r.Context()); !ok {
			http.Error(w, "not authenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetParentFromContext extracts the parent session from the request context.
func GetParentFromContext(ctx context.Context) (ParentSession, bool) {
	session, ok := ctx.Value(parentContextKey).(ParentSession)
	return session, ok
}

// SetParentCookie sets the parent session cookie, scoped to the parent
// portal paths.
func SetParentCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     parentCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/parent",
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearParentCookie removes the parent session cookie.
func ClearParentCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     parentCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/parent",
		MaxAge:   -1,
	})
}

// ContextWithParent returns a context with the given parent session set.
// Intended for use in tests.
func ContextWithParent(ctx context.Context, sess ParentSession) context.Context {
	return context.WithValue(ctx, parentContextKey, sess)
}

// GenerateParentToken returns a new opaque session token.
func GenerateParentToken() (string, error) {
	return generateToken()
}
