package router

import (
	"fmt"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/logger"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/handler"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Transactions *handler.TransactionHandler
	Customers    *handler.CustomerHandler
	Orders       *handler.OrderHandler
	Catalog      *handler.CatalogHandler
	Reports      *handler.ReportHandler
	Portal       *handler.PortalHandler
	Health       *handler.HealthHandler
}

// Deps holds what the engine needs besides the handlers. PortalLimiter,
// Meter and Telemetry are optional.
type Deps struct {
	HTTP          config.HTTPConfig
	Telemetry     config.TelemetryConfig
	ProfileRoutes bool
	Logger        *zap.Logger
	Tokens        middleware.TokenValidator
	Policy        middleware.Authorizer
	Meter         *telemetry.MeterProvider
	PortalLimiter *middleware.RateLimiter
}

// New builds the gin engine with the full middleware chain and every route.
// Each staff route declares the permission it requires. An unparsable
// trusted proxy list is an error.
func New(deps Deps, h Handlers) (*gin.Engine, error) {
	middleware.SetupValidator()

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(deps.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	if len(deps.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = deps.HTTP.CORSAllowOrigins
	}
	if len(deps.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = deps.HTTP.CORSAllowMethods
	}
	if len(deps.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = deps.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(cors),
		middleware.BodyLimit(deps.HTTP.MaxBodySize),
		middleware.Tracing(deps.Telemetry.ServiceName, deps.Telemetry.Enabled),
		middleware.HTTPMetrics(deps.Meter),
	)

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	gate := middleware.NewPermissionGate(deps.Policy, log)
	r := NewRouter(engine)
	r.Register(staffRoutes(deps, gate, log, h))
	r.Register(portalRoutes(deps, h))
	r.Setup()

	return engine, nil
}

func staffRoutes(deps Deps, gate *middleware.PermissionGate, log *zap.Logger, h Handlers) *DomainGroup {
	staff := NewDomainGroup("staff", "").Use(
		middleware.JWTAuth(middleware.JWTMiddlewareConfig{Validator: deps.Tokens, Logger: log}),
		middleware.TracingAttributeInjector(),
		middleware.Profiling(deps.ProfileRoutes),
	)

	if t := h.Transactions; t != nil {
		staff.Group("transactions", "/transactions").
			POST("", gate.RequireFunc(handler.EntryPermission), t.Create).
			GET("", gate.Require(identity.PermTransactions), t.List)
	}

	if c := h.Customers; c != nil {
		staff.Group("customers", "/customers").
			POST("", gate.Require(identity.PermRegister), c.Register).
			GET("", gate.Require(identity.PermDashboard), c.List).
			GET("/:id", gate.Require(identity.PermDashboard), c.Get).
			PUT("/:id", gate.Require(identity.PermEditCustomer), c.Update).
			POST("/:id/deactivate", gate.Require(identity.PermEditCustomer), c.Deactivate).
			GET("/:id/reconciliation", gate.Require(identity.PermStats), c.Reconciliation)
	}

	if o := h.Orders; o != nil {
		staff.Group("orders", "/orders").
			POST("", gate.Require(identity.PermOrders), o.Create).
			GET("", gate.Require(identity.PermOrders), o.List).
			GET("/:id", gate.Require(identity.PermOrders), o.Get).
			PUT("/:id/status", gate.Require(identity.PermOrders), o.AdvanceStatus)
	}

	if cat := h.Catalog; cat != nil {
		catalog := staff.Group("catalog", "/catalog")
		catalog.Group("products", "/products").
			GET("", gate.Require(identity.PermDashboard), cat.ListProducts).
			POST("", gate.Require(identity.PermManageUsers), cat.CreateProduct).
			PUT("/:id", gate.Require(identity.PermManageUsers), cat.UpdateProduct)
		catalog.Group("zones", "/zones").
			GET("", gate.Require(identity.PermDashboard), cat.ListZones).
			POST("", gate.Require(identity.PermManageUsers), cat.CreateZone).
			PUT("/:id", gate.Require(identity.PermManageUsers), cat.UpdateZone)
	}

	if rep := h.Reports; rep != nil {
		staff.Group("reports", "/reports").
			GET("/dashboard", gate.Require(identity.PermStats), rep.Dashboard).
			GET("/transactions/export", gate.Require(identity.PermExport), rep.Export)
	}

	return staff
}

func portalRoutes(deps Deps, h Handlers) *DomainGroup {
	portal := NewDomainGroup("portal", "/portal")
	if deps.PortalLimiter != nil {
		portal.Use(middleware.RateLimit(deps.PortalLimiter))
	}
	portal.Use(middleware.PortalTenant())

	if p := h.Portal; p != nil {
		portal.GET("/lookup", p.Lookup).
			POST("/orders", p.CreateOrder)
	}
	return portal
}
