package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and injects the caller's
// identity into the request context.
func AuthnMiddleware(codec *jwtx.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := codec.VerifyAccessToken(raw)
			if err != nil {
				if err == jwtx.ErrTokenExpired {
					writeBearerError(w, "token expired")
					return
				}
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.AccessClaims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	return context.WithValue(ctx, CtxKeyEmail, c.Email)
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
