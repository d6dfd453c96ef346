package handler

import (
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Conf struct {
	Router *gin.Engine
	DB     *sqlx.DB
	Log    *logger.Logger
	Build  string
}

func RegisterRoutes(cfg Conf) {
	h := handler{
		db:    cfg.DB,
		log:   cfg.Log,
		build: cfg.Build,
	}

	cfg.Router.GET("/v1/readiness", h.readiness)
	cfg.Router.GET("/v1/liveness", h.liveness)
}
