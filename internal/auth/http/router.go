package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cvforge/cvforge/internal/auth/service"
	"github.com/cvforge/cvforge/internal/auth/store"
	"github.com/cvforge/cvforge/pkg/httpx"
	"github.com/cvforge/cvforge/pkg/jwtx"
	"github.com/cvforge/cvforge/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	env          string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AccountService   *service.AccountService
	TokenService     *service.TokenService
	PasswordService  *service.PasswordService
	TwoFactorService *service.TwoFactorService
}

func NewRouter(
	verifier jwtx.Verifier,
	env, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		env:          env,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTwoFactor()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CVForge Authentication Service API
//	@version		0.1.0
//	@description	Account, session and two-factor authentication service for CVForge.
//	@description
//	@description				Access tokens are HS256 JWTs; refresh tokens are opaque and rotated on every use.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /register - strict rate limit by IP (account creation)
	registerHandler := &RegisterHandler{AccountService: r.AccountService, Env: r.env}
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{AccountService: r.AccountService, Env: r.env}
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh-token - moderate rate limit (every client session rotates here)
	refreshHandler := &RefreshHandler{TokenService: r.TokenService, Env: r.env}
	r.Mux.Handle("POST /api/auth/refresh-token",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - authenticated, moderate rate limit by account
	logoutHandler := &LogoutHandler{TokenService: r.TokenService, Env: r.env}
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	// GET /me - authenticated, lenient (polled by clients)
	meHandler := &MeHandler{AccountService: r.AccountService, Env: r.env}
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		),
	)

	// POST /change-password - authenticated, strict (credential guessing)
	changeHandler := &ChangePasswordHandler{PasswordService: r.PasswordService, Env: r.env}
	r.Mux.Handle("POST /api/auth/change-password",
		httpx.Chain(changeHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.StrictLimit),
		),
	)

	// POST /forgot-password and /reset-password - strict by IP (public)
	forgotHandler := &ForgotPasswordHandler{PasswordService: r.PasswordService, Env: r.env}
	r.Mux.Handle("POST /api/auth/forgot-password",
		httpx.Chain(forgotHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	resetHandler := &ResetPasswordHandler{PasswordService: r.PasswordService, Env: r.env}
	r.Mux.Handle("POST /api/auth/reset-password",
		httpx.Chain(resetHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{
		TwoFactorService: r.TwoFactorService,
		Env:              r.env,
	}

	// Enrolment and management require a bearer token.
	r.Mux.Handle("POST /api/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	// Strict limit on verify: prevents brute force of TOTP codes.
	r.Mux.Handle("POST /api/2fa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/2fa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/2fa/status",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByAccount(httpx.LenientLimit),
		),
	)

	// Validate completes a login challenge, so there is no bearer yet.
	// Strict by IP for the same brute-force reason as verify.
	r.Mux.Handle("POST /api/2fa/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
