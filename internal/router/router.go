package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/handler"
	accounthandler "github.com/parkcare/care-api/internal/handler/account"
	assignmenthandler "github.com/parkcare/care-api/internal/handler/assignment"
	audithandler "github.com/parkcare/care-api/internal/handler/audit"
	authhandler "github.com/parkcare/care-api/internal/handler/auth"
	checkinhandler "github.com/parkcare/care-api/internal/handler/checkin"
	insighthandler "github.com/parkcare/care-api/internal/handler/insight"
	invitationhandler "github.com/parkcare/care-api/internal/handler/invitation"
	reporthandler "github.com/parkcare/care-api/internal/handler/report"
	"github.com/parkcare/care-api/internal/middleware"
	"github.com/parkcare/care-api/internal/model"
	"github.com/parkcare/care-api/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *authhandler.Handler
	Account    *accounthandler.Handler
	Invitation *invitationhandler.Handler
	Assignment *assignmenthandler.Handler
	CheckIn    *checkinhandler.Handler
	Report     *reporthandler.Handler
	Insight    *insighthandler.Handler
	Audit      *audithandler.Handler
}

// New assembles the engine: middleware chain, probes, metrics endpoint,
// public signup surface and the authenticated API.
func New(cfg *config.Config, m *metrics.Metrics, authMW *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	registerValidators()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
		Burst: cfg.RateLimit.Burst,
	})
	engine.Use(limiter.RateLimit())

	h.Health.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := engine.Group("/api/v1")
	{
		h.Auth.RegisterRoutes(public)
		h.Invitation.RegisterPublicRoutes(public)
	}

	api := engine.Group("/api/v1")
	api.Use(authMW.Authenticate())
	{
		h.Account.RegisterRoutes(api)
		h.Invitation.RegisterRoutes(api)
		h.Assignment.RegisterRoutes(api)
		h.CheckIn.RegisterRoutes(api)
		h.Report.RegisterRoutes(api)
		h.Insight.RegisterRoutes(api)

		admin := api.Group("")
		admin.Use(authMW.RequireRole(model.RoleAdmin))
		h.Audit.RegisterRoutes(admin)
	}

	return engine
}

// registerValidators wires custom binding tags. checkindate rejects
// anything that is not a YYYY-MM-DD calendar date.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("checkindate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.CheckInDateLayout, fl.Field().String())
		return err == nil
	})
}
