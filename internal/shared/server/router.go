package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legalassist-backend/internal/conversation"
	"legalassist-backend/internal/documents"
	"legalassist-backend/internal/preferences"
	"legalassist-backend/internal/services/health"
	"legalassist-backend/internal/shared/config"
	"legalassist-backend/internal/shared/metrics"
	"legalassist-backend/internal/shared/server/middleware"
	"legalassist-backend/internal/shared/server/respond"
	"legalassist-backend/internal/usage"
)

const (
	rateGroupDefault   = "DEFAULT"
	rateGroupAssistant = "ASSISTANT"
)

// RouterDeps carries the handlers mounted on the API.
type RouterDeps struct {
	Config              config.Config
	Verifier            middleware.TokenVerifier
	Health              *health.Service
	ConversationHandler *conversation.Handler
	DocumentHandler     *documents.Handler
	UsageHandler        *usage.Handler
	PreferencesHandler  *preferences.Handler
	RateLimiter         *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/api/v1/health", func(c *gin.Context) {
		st := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault:   {Rate: 10, Burst: 40},
				rateGroupAssistant: {Rate: 1, Burst: 6},
			},
		}),
	)

	registerMeRoutes(api)
	if deps.ConversationHandler != nil {
		deps.ConversationHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.PreferencesHandler != nil {
		deps.PreferencesHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor puts the calls that reach the assistant backend on a tighter budget.
func rateGroupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return rateGroupDefault
	}
	switch c.FullPath() {
	case "/api/v1/conversation/messages",
		"/api/v1/conversation/speech",
		"/api/v1/conversation/attachments":
		return rateGroupAssistant
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
