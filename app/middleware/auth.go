package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"yatube/app/auth"
	"yatube/app/models"

	"go.uber.org/zap"
)

// LoginPath is where anonymous visitors of protected pages are sent.
const LoginPath = "/auth/login/"

// UserLoader resolves the user a session token belongs to.
type UserLoader interface {
	GetUser(id int) (*models.User, error)
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// Authenticate resolves the session cookie or Bearer token into a user.
// Requests with a missing or stale token continue anonymously.
func Authenticate(tokens *auth.Tokens, users UserLoader, cookieName string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(cookieName); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				log.Debug("rejected session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			id, err := claims.UserID()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.GetUser(id)
			if err != nil {
				log.Debug("session user not found", zap.Int("user_id", id), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// LoginRequired sends anonymous visitors to the login page, or answers
// 401 on the API.
func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if IsAPI(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication credentials were not provided."}` + "\n"))
			return
		}
		http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
	})
}

// LoginURL is the login page that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
