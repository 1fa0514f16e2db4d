package middleware

import (
	"context"
	"net/http"

	"github.com/sessauth/sessauth"
	"github.com/sessauth/sessauth/transport"
)

type resultContextKey struct{}

// ResultFromContext returns the resolution result stored by [Resolve].
func ResultFromContext(ctx context.Context) (*sessauth.Result, bool) {
	res, ok := ctx.Value(resultContextKey{}).(*sessauth.Result)
	return res, ok
}

// Resolve runs one authentication resolution per request over a cookie
// transport and stores the [sessauth.Result] in the request context.
// Resolution never rejects the request by itself: anonymous and failed
// outcomes pass through with their status, and handlers (or
// [RequireAuthenticated]) decide what to do with them. Store I/O failures
// are the only 500s this middleware produces.
func Resolve(engine *sessauth.Engine, cookie transport.CookieConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			res, err := engine.Resolve(r.Context(), transport.NewCookie(cookie, w, r))
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), resultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects requests whose resolution did not produce a
// logged-in user. It must run below [Resolve].
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := ResultFromContext(r.Context())
		if !ok || !res.Logged() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
