package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aussiebroadwan/till/api/till" // Swagger docs
	"github.com/aussiebroadwan/till/internal/auth/middleware"
	"github.com/aussiebroadwan/till/internal/auth/policy"
	"github.com/aussiebroadwan/till/internal/auth/rbac"
	"github.com/aussiebroadwan/till/internal/auth/service"
	"github.com/aussiebroadwan/till/internal/auth/store"
	"github.com/aussiebroadwan/till/internal/metrics"
	"github.com/aussiebroadwan/till/pkg/httpx"
	"github.com/aussiebroadwan/till/pkg/jwtx"
	"github.com/aussiebroadwan/till/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	codec    *jwtx.Codec
	revoked  middleware.RevocationChecker
	resolver *rbac.Resolver
	gate     *policy.Gate

	// DenylistPinger is probed by /readyz when the denylist lives outside
	// the database.
	DenylistPinger Pinger

	// Metrics and Gatherer are optional; without them /metrics is not
	// mounted and nothing is counted.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	AuthService          *service.AuthService
	UserService          *service.UserService
	RoleService          *service.RoleService
	PasswordResetService *service.PasswordResetService
	Products             *ProductsHandler
}

func NewRouter(
	codec *jwtx.Codec,
	revoked middleware.RevocationChecker,
	resolver *rbac.Resolver,
	gate *policy.Gate,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		codec:        codec,
		revoked:      revoked,
		resolver:     resolver,
		gate:         gate,
		Products:     NewProductsHandler(DemoProducts()...),
	}
}

// ApplyRoutes registers every route. It must run once before ServeHTTP.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerRoles()
	r.registerProducts()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	// Instrument must wrap the mux itself so the matched pattern is
	// visible once the mux returns.
	var h http.Handler = r.Mux
	if r.Metrics != nil {
		h = r.Metrics.Instrument(h)
	}
	r.handler = httpx.Chain(h, slogx.HTTPMiddleware(r.logger))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Till Authentication Service API
//	@version		0.1.0
//	@description	Authentication and role based access control for the Till point-of-sale backend.
//	@description
//	@description				Every response uses the envelope {success, message, data, errors}.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/till
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
	r.handler.ServeHTTP(w, req)
}

func (r *Router) observerOpts() []middleware.Option {
	if r.Metrics == nil {
		return nil
	}
	return []middleware.Option{middleware.WithObserver(r.Metrics)}
}

// authenticated chains authentication and a per-user rate limit in front of h.
func (r *Router) authenticated(h http.Handler, limit httpx.RateLimitConfig, extra ...httpx.Middleware) http.Handler {
	mws := []httpx.Middleware{
		middleware.Authenticate(r.codec, r.revoked, r.store.Users(), r.observerOpts()...),
		httpx.RateLimitByUser(limit),
	}
	return httpx.Chain(h, append(mws, extra...)...)
}

func (r *Router) requireAny(perms ...rbac.Permission) httpx.Middleware {
	return middleware.RequirePermission(r.resolver, perms, r.observerOpts()...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Auth: r.AuthService, Resets: r.PasswordResetService}

	// POST /auth/login - strict rate limit by IP + email to slow down guessing
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	r.Mux.Handle("POST /auth/refresh", r.authenticated(http.HandlerFunc(h.HandleRefresh), httpx.LenientLimit))
	r.Mux.Handle("POST /auth/logout", r.authenticated(http.HandlerFunc(h.HandleLogout), httpx.LenientLimit))
	r.Mux.Handle("GET /auth/me", r.authenticated(http.HandlerFunc(h.HandleMe), httpx.LenientLimit))

	// Password reset - strict rate limit by IP + email (mail bombing)
	r.Mux.Handle("POST /auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)
	r.Mux.Handle("POST /auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService, Gate: r.gate}

	r.Mux.Handle("GET /users", r.authenticated(http.HandlerFunc(h.HandleList), httpx.LenientLimit,
		r.requireAny(rbac.ViewUsers)))
	r.Mux.Handle("POST /users", r.authenticated(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit,
		r.requireAny(rbac.CreateUsers)))

	// Per-user routes rely on the policy gate, which lets users see and
	// edit themselves without view_users.
	r.Mux.Handle("GET /users/{id}", r.authenticated(http.HandlerFunc(h.HandleShow), httpx.LenientLimit))
	r.Mux.Handle("PUT /users/{id}", r.authenticated(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("PATCH /users/{id}/status", r.authenticated(http.HandlerFunc(h.HandleUpdateStatus), httpx.ModerateLimit))
	r.Mux.Handle("PUT /users/{id}/roles", r.authenticated(http.HandlerFunc(h.HandleAssignRoles), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /users/{id}", r.authenticated(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
	r.Mux.Handle("POST /users/{id}/restore", r.authenticated(http.HandlerFunc(h.HandleRestore), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /users/{id}/force", r.authenticated(http.HandlerFunc(h.HandleForceDelete), httpx.ModerateLimit))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{Roles: r.RoleService, Gate: r.gate}

	r.Mux.Handle("GET /roles", r.authenticated(http.HandlerFunc(h.HandleList), httpx.LenientLimit,
		r.requireAny(rbac.ViewRoles)))
	r.Mux.Handle("POST /roles", r.authenticated(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit,
		r.requireAny(rbac.CreateRoles)))
	r.Mux.Handle("GET /roles/{id}", r.authenticated(http.HandlerFunc(h.HandleShow), httpx.LenientLimit))
	r.Mux.Handle("PUT /roles/{id}", r.authenticated(http.HandlerFunc(h.HandleUpdate), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /roles/{id}", r.authenticated(http.HandlerFunc(h.HandleDelete), httpx.ModerateLimit))
	r.Mux.Handle("POST /roles/{id}/restore", r.authenticated(http.HandlerFunc(h.HandleRestore), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /roles/{id}/force", r.authenticated(http.HandlerFunc(h.HandleForceDelete), httpx.ModerateLimit))
	r.Mux.Handle("POST /roles/{id}/permissions", r.authenticated(http.HandlerFunc(h.HandleAssignPermissions), httpx.ModerateLimit))
	r.Mux.Handle("PUT /roles/{id}/permissions", r.authenticated(http.HandlerFunc(h.HandleSyncPermissions), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /roles/{id}/permissions", r.authenticated(http.HandlerFunc(h.HandleRevokePermissions), httpx.ModerateLimit))

	r.Mux.Handle("GET /permissions", r.authenticated(http.HandlerFunc(h.HandleListPermissions), httpx.LenientLimit,
		r.requireAny(rbac.ViewRoles)))
}

func (r *Router) registerProducts() {
	r.Mux.Handle("GET /products", r.authenticated(http.HandlerFunc(r.Products.HandleList), httpx.LenientLimit,
		r.requireAny(rbac.ViewProducts, rbac.EditProducts)))
	r.Mux.Handle("PUT /products/{id}", r.authenticated(http.HandlerFunc(r.Products.HandleUpdate), httpx.ModerateLimit,
		r.requireAny(rbac.EditProducts)))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec, r.DenylistPinger),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics",
			httpx.Chain(metrics.Handler(r.Gatherer),
				httpx.RateLimitByIP(httpx.PublicLimit),
			),
		)
	}
}
