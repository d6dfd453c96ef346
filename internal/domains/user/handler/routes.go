package handler

import (
	"time"

	"github.com/facilops/fixdesk/internal/auth"
	"github.com/facilops/fixdesk/internal/cachedb"
	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/mid"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Conf struct {
	Router  *gin.Engine
	UserBus *bus.Bus

	// Messages feeds system statistics. Cache is optional.
	Messages messageTotals
	Cache    *cachedb.Cache

	// Auth may be nil, in which case the routes are left open. The http
	// tests rely on that.
	Auth        *auth.Auth
	Kid         string
	TokenMaxAge time.Duration

	Tracer trace.Tracer
	Logger *logger.Logger
}

// RegisterRoutes takes the mux and registers the admin user endpoints on it.
func RegisterRoutes(cfg Conf) {
	h := handler{
		userBus:     cfg.UserBus,
		messages:    cfg.Messages,
		cache:       cfg.Cache,
		a:           cfg.Auth,
		kid:         cfg.Kid,
		tokenMaxAge: cfg.TokenMaxAge,
		tracer:      cfg.Tracer,
		logger:      cfg.Logger,
	}

	users := cfg.Router.Group("/v1/admin/adminusers")

	if cfg.Auth != nil {
		authenticated := mid.Authenticate(cfg.Logger, cfg.Auth, cfg.UserBus)
		admin := mid.Authorized(cfg.Auth, map[string]struct{}{bus.RoleAdmin.String(): {}})

		users.Use(authenticatedExcept(authenticated, "/v1/admin/adminusers/login"))

		users.POST("", admin, h.CreateUser)
		users.PUT("/:id", admin, h.UpdateUser)
		users.DELETE("/:id", admin, h.DeleteUser)
		users.PATCH("/:id/toggle-status", admin, h.ToggleUserStatus)
	} else {
		users.POST("", h.CreateUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PATCH("/:id/toggle-status", h.ToggleUserStatus)
	}

	users.GET("", h.Query)
	users.GET("/all", h.QueryAll)
	users.GET("/statistics", h.SystemStatistics)
	users.GET("/:id", h.QueryUserByID)
	users.GET("/:id/login-history", h.LoginHistory)
	users.GET("/:id/activity", h.Activity)
	users.GET("/:id/statistics", h.UserStatistics)

	if cfg.Auth != nil {
		users.POST("/login", h.Authenticate)
	}
}

// authenticatedExcept skips the given paths, login has to work without a
// token.
func authenticatedExcept(authenticated gin.HandlerFunc, open ...string) gin.HandlerFunc {
	openSet := make(map[string]struct{}, len(open))
	for _, p := range open {
		openSet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := openSet[c.FullPath()]; ok {
			c.Next()
			return
		}
		authenticated(c)
	}
}
