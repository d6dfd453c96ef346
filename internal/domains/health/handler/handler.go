// Package handler exposes the readiness and liveness probes.
package handler

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/facilops/fixdesk/internal/sqldb"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Info struct {
	Status     string `json:"status"`
	Build      string `json:"build"`
	Host       string `json:"host"`
	Name       string `json:"name,omitempty"`
	PodIP      string `json:"podIP,omitempty"`
	Node       string `json:"node,omitempty"`
	Namespace  string `json:"namespace,omitempty"`
	GOMAXPROCS int    `json:"GOMAXPROCS"`
}

type handler struct {
	db    *sqlx.DB
	log   *logger.Logger
	build string
}

func (h *handler) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second*10)
	defer cancel()

	if err := sqldb.ConnCheck(ctx, h.db); err != nil {
		h.log.Error(ctx, "readiness failed", "err", err.Error())
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "ok"})
}

func (h *handler) liveness(c *gin.Context) {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	info := Info{
		Status:     "running",
		Build:      h.build,
		Host:       host,
		Name:       os.Getenv("KUBERNETES_NAME"),
		PodIP:      os.Getenv("KUBERNETES_POD_IP"),
		Node:       os.Getenv("KUBERNETES_NODE_NAME"),
		Namespace:  os.Getenv("KUBERNETES_NAMESPACE"),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
	}

	c.JSON(http.StatusOK, info)
}
