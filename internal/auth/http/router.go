package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Mir00r/planify-backend/internal/auth/service"
	"github.com/Mir00r/planify-backend/internal/auth/store"
	"github.com/Mir00r/planify-backend/pkg/httpx"
	"github.com/Mir00r/planify-backend/pkg/jwtx"
	"github.com/Mir00r/planify-backend/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	AuthService  *service.AuthService
	TokenService *service.TokenService
	ResetService *service.PasswordResetService
	MFAService   *service.MFAService
	UserService  *service.UserService
}

func NewRouter(codec *jwtx.Codec, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPublic()
	r.registerSession()
	r.registerProfile()
	r.registerMFA()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPublic() {
	h := &AuthHandler{
		AuthService:  r.AuthService,
		ResetService: r.ResetService,
	}

	// Credential endpoints carry the strict per-IP limit: they are the
	// brute-force and enumeration surface.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSession() {
	h := &TokenHandler{
		AuthService:  r.AuthService,
		TokenService: r.TokenService,
	}

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	// Logout takes the refresh token in the body, not a bearer header, so it
	// works even after the access token has expired.
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{
		UserService: r.UserService,
		AuthService: r.AuthService,
	}

	r.Mux.Handle("GET /v1/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/auth/profile",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/change-password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	r.Mux.Handle("POST /v1/auth/mfa/enable",
		httpx.Chain(http.HandlerFunc(h.HandleEnable),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.codec),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
