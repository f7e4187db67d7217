// Package router wires HTTP routes to handlers and applies the route-level
// middleware (JWT, role guards, rate limiting, response caching).
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/advocate-booking/internal/handler"
	"github.com/iliyamo/advocate-booking/internal/middleware"
	"github.com/iliyamo/advocate-booking/internal/model"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health    echo.HandlerFunc
	Metrics   http.Handler
	Auth      *handler.AuthHandler
	Advocates *handler.AdvocateHandler
	Bookings  *handler.BookingHandler
	Documents *handler.DocumentHandler
	Payments  *handler.PaymentHandler
}

// Options carries the route-level middleware.  Nil limiter or cache
// disables them.
type Options struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

// Register installs every route on e.
func Register(e *echo.Echo, h Handlers, opt Options) {
	RegisterRoutes(e, h)
	jwt := middleware.JWTAuth(opt.JWTSecret)
	RegisterAuth(e, h.Auth, jwt, orPass(opt.RateLimit))
	RegisterPublic(e, h.Advocates, orPass(opt.Cache))
	RegisterClient(e, h.Bookings, jwt)
	RegisterAdvocate(e, h.Advocates, h.Bookings, h.Payments, jwt)
	RegisterBookings(e, h.Bookings, h.Documents, jwt)
}

// RegisterRoutes exposes the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", h.Health)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}
}

// RegisterAuth registers registration, login and session routes.  The
// unauthenticated ones are rate limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwt, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register/client", a.RegisterClient, limiter)
	g.POST("/register/advocate", a.RegisterAdvocate, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)
	g.POST("/logout", a.Logout, jwt)

	e.GET("/v1/me", a.Me, jwt, middleware.RequireRole(model.RoleClient, model.RoleAdvocate))
}

// RegisterPublic registers the advocate browsing endpoints guests may use.
// "/featured" is registered before "/:id"; echo prefers static segments
// anyway.
func RegisterPublic(e *echo.Echo, a *handler.AdvocateHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/advocates", cache)
	g.GET("", a.Search)
	g.GET("/featured", a.Featured)
	g.GET("/:id", a.Detail)
}

// RegisterClient registers the client-only endpoints.
func RegisterClient(e *echo.Echo, b *handler.BookingHandler, jwt echo.MiddlewareFunc) {
	client := middleware.RequireRole(model.RoleClient)
	e.GET("/v1/client/dashboard", b.ClientDashboard, jwt, client)
	e.POST("/v1/advocates/:id/bookings", b.Create, jwt, client)
}

// RegisterAdvocate registers the advocate-only endpoints.
func RegisterAdvocate(e *echo.Echo, a *handler.AdvocateHandler, b *handler.BookingHandler, p *handler.PaymentHandler, jwt echo.MiddlewareFunc) {
	g := e.Group("/v1/advocate", jwt, middleware.RequireRole(model.RoleAdvocate))
	g.GET("/dashboard", b.AdvocateDashboard)
	g.PUT("/profile", a.UpdateProfile)
	g.POST("/payments/order", p.CreateOrder)
	g.POST("/payments/verify", p.Verify)
}

// RegisterBookings registers the per-booking routes.  Ownership is checked
// by the services; the role guards only narrow who may try.  Middleware is
// attached per route so unknown /v1 paths still 404.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, d *handler.DocumentHandler, jwt echo.MiddlewareFunc) {
	anyRole := middleware.RequireRole(model.RoleClient, model.RoleAdvocate)
	e.GET("/v1/bookings/:id", b.Detail, jwt, anyRole)
	e.PATCH("/v1/bookings/:id/status", b.UpdateStatus, jwt, middleware.RequireRole(model.RoleAdvocate))
	e.POST("/v1/bookings/:id/review", b.SubmitReview, jwt, middleware.RequireRole(model.RoleClient))
	e.POST("/v1/bookings/:id/documents", d.Upload, jwt, anyRole)
	e.GET("/v1/bookings/:id/documents", d.List, jwt, anyRole)
	e.GET("/v1/documents/:id/file", d.File, jwt, anyRole)
}
