// Package server assembles the gin engine: middleware chain, public routes,
// and the protected /api/v1 group.
package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"agrimarket/backend/internal/audit"
	audithandler "agrimarket/backend/internal/audit/handler"
	bookinghandler "agrimarket/backend/internal/booking/handler"
	cataloghandler "agrimarket/backend/internal/catalog/handler"
	healthhandler "agrimarket/backend/internal/health/handler"
	identityhandler "agrimarket/backend/internal/identity/handler"
	invitehandler "agrimarket/backend/internal/invite/handler"
	membershiphandler "agrimarket/backend/internal/membership/handler"
	messagehandler "agrimarket/backend/internal/message/handler"
	orderhandler "agrimarket/backend/internal/order/handler"
	organizationhandler "agrimarket/backend/internal/organization/handler"
	policyhandler "agrimarket/backend/internal/policy/handler"
	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server/middleware"
	"agrimarket/backend/internal/telemetry"
	telemetryhandler "agrimarket/backend/internal/telemetry/handler"
	userhandler "agrimarket/backend/internal/user/handler"
)

// ServiceName is the tracing service name reported by otelgin.
const ServiceName = "agrimarket-api"

// Deps holds the handlers and cross-cutting dependencies wired into the router.
// Optional fields may be nil; the corresponding routes or middleware are then skipped.
type Deps struct {
	Tokens *security.TokenProvider

	Auth     *identityhandler.AuthHandler
	Me       *userhandler.MeHandler
	Orgs     *organizationhandler.OrgHandler
	Members  *membershiphandler.MemberHandler
	Invites  *invitehandler.InviteHandler
	Catalog  *cataloghandler.CatalogHandler
	Orders   *orderhandler.OrderHandler
	Bookings *bookinghandler.BookingHandler
	Messages *messagehandler.MessageHandler
	Policy   *policyhandler.PolicyHandler
	Audit    *audithandler.AuditHandler
	Ingest   *telemetryhandler.TelemetryHandler
	Health   *healthhandler.HealthHandler

	// AuditLogger records protected requests; nil disables request auditing.
	AuditLogger audit.AuditLogger
	// RequestEmitter receives http_request telemetry events; nil disables them.
	RequestEmitter telemetry.EventEmitter
}

// probeRoutes are excluded from request auditing and telemetry.
var probeRoutes = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
}

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(ServiceName))
	r.Use(middleware.ClientIP())
	if deps.RequestEmitter != nil {
		r.Use(middleware.Telemetry(deps.RequestEmitter, probeRoutes))
	}

	if deps.Health != nil {
		deps.Health.Register(r)
	}

	// Public routes. Logout reads the caller's session when a valid token is
	// present, so the public group resolves identity opportunistically.
	pub := r.Group("/")
	pub.Use(middleware.OptionalBearerAuth(deps.Tokens))
	if deps.Auth != nil {
		deps.Auth.Register(pub)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.BearerAuth(deps.Tokens))
	if deps.AuditLogger != nil {
		api.Use(middleware.Audit(deps.AuditLogger, nil))
	}

	if deps.Me != nil {
		deps.Me.Register(api)
	}
	if deps.Orgs != nil {
		deps.Orgs.Register(api)
	}
	if deps.Members != nil {
		deps.Members.Register(api)
	}
	if deps.Invites != nil {
		deps.Invites.Register(api, pub)
	}
	if deps.Catalog != nil {
		deps.Catalog.Register(api)
	}
	if deps.Orders != nil {
		deps.Orders.Register(api)
	}
	if deps.Bookings != nil {
		deps.Bookings.Register(api)
	}
	if deps.Messages != nil {
		deps.Messages.Register(api)
	}
	if deps.Policy != nil {
		deps.Policy.Register(api)
	}
	if deps.Audit != nil {
		deps.Audit.Register(api)
	}
	if deps.Ingest != nil {
		deps.Ingest.Register(api)
	}

	return r
}
