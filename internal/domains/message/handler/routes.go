package handler

import (
	"github.com/facilops/fixdesk/internal/auth"
	"github.com/facilops/fixdesk/internal/domains/message/bus"
	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/mid"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Conf struct {
	Router     *gin.Engine
	MessageBus *bus.Bus
	UserBus    *userbus.Bus

	// Auth may be nil, the tests install their own identity middleware.
	Auth *auth.Auth

	Tracer trace.Tracer
	Logger *logger.Logger
}

// RegisterRoutes takes the mux and registers the admin messaging endpoints
// on it. Every endpoint acts as the authenticated user.
func RegisterRoutes(cfg Conf) {
	h := handler{
		messageBus: cfg.MessageBus,
		tracer:     cfg.Tracer,
	}

	messages := cfg.Router.Group("/v1/admin/adminmessages")

	if cfg.Auth != nil {
		messages.Use(mid.Authenticate(cfg.Logger, cfg.Auth, cfg.UserBus))
	}

	messages.POST("", h.Send)
	messages.GET("/inbox", h.Inbox)
	messages.GET("/sent", h.Sent)
	messages.GET("/unread-count", h.UnreadCount)
	messages.PATCH("/:id/read", h.MarkRead)
}
