package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/astra-care/internal/handler"
	"github.com/iliyamo/astra-care/internal/middleware"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/stream"
)

// Deps carries everything the route table needs.
type Deps struct {
	JWTSecret string
	Auth      *handler.AuthHandler
	Telemetry *handler.TelemetryHandler
	Chat      *handler.ChatHandler
	Hub       *stream.Hub
	Limiter   echo.MiddlewareFunc // per-user limit behind JWTAuth; nil disables
	Public    echo.MiddlewareFunc // per-address limit on public routes; nil disables
	Cache     echo.MiddlewareFunc // nil disables response caching
	LogAccess bool
}

// authed returns the middleware of an authenticated group.  The limiter
// runs after JWTAuth so it can key on the caller.
func (d Deps) authed() []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.JWTAuth(d.JWTSecret)}
	if d.Limiter != nil {
		mw = append(mw, d.Limiter)
	}
	return mw
}

func (d Deps) public() []echo.MiddlewareFunc {
	if d.Public == nil {
		return nil
	}
	return []echo.MiddlewareFunc{d.Public}
}

// New builds the Echo instance with the shared middleware stack and every
// route registered under /api.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	if d.LogAccess {
		e.Use(echomw.Logger())
	}
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterTelemetry(e, d)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, d Deps) {
	mw := d.public()
	if d.Cache != nil {
		mw = append(mw, d.Cache)
	}
	e.GET("/api/health", handler.Health, mw...)
}

// RegisterAuth registers the authentication routes.  Register and login
// are public; the profile endpoints require a valid access token.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.Auth
	g := e.Group("/api/auth", d.public()...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	me := e.Group("/api/auth", d.authed()...)
	me.GET("/me", a.Me)
	me.PUT("/profile", a.UpdateProfile)
}

// RegisterTelemetry registers the per-subject endpoints.  Routes whose
// path names the subject are guarded by RequireSubjectParam; handlers
// check subjects carried in bodies or query strings themselves.
func RegisterTelemetry(e *echo.Echo, d Deps) {
	h := d.Telemetry
	g := e.Group("/api", d.authed()...)
	own := middleware.RequireSubjectParam("id")

	g.POST("/health/ingest", h.Ingest)
	g.GET("/health/latest/:id", h.Latest, own)
	g.GET("/health/timeline/:id", h.Timeline, own)

	g.GET("/baseline/:id", h.Baseline, own)
	g.POST("/baseline/recalibrate", h.Recalibrate)

	g.POST("/facial/analyze", h.AnalyzeFacial)
	g.GET("/facial/latest/:id", h.LatestFacial, own)
	g.GET("/facial/history/:id", h.FacialHistory, own)

	g.GET("/context/:id", h.Context, own)
	g.POST("/context/update", h.UpdateContext)

	g.GET("/alerts/:id", h.Alerts, own)
	g.POST("/alerts/acknowledge", h.ActOnAlert)

	g.POST("/chat/send", d.Chat.Send)
	g.GET("/chat/history/:id", d.Chat.History, own)

	g.POST("/simulate/generate", h.Simulate)
	g.GET("/dashboard/summary/:id", h.Summary, own)

	crew := []echo.MiddlewareFunc{middleware.RequireRole(model.RoleSupervisor, model.RoleMedical)}
	if d.Cache != nil {
		crew = append(crew, d.Cache)
	}
	g.GET("/astronauts", h.Roster, crew...)

	if d.Hub != nil {
		g.GET("/stream/:id", handler.Stream(d.Hub), own)
	}
}
