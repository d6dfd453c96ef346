// Package handler provides endpoints for admin messaging.
package handler

import (
	"errors"
	"net/http"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/errs"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type handler struct {
	messageBus *bus.Bus
	tracer     trace.Tracer
}

func (h *handler) Send(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "message.handler.send")
	defer span.End()

	usr, err := currentUser(c)
	if err != nil {
		c.Error(err)
		return
	}

	var nm newMessage
	if err := c.ShouldBindJSON(&nm); err != nil {
		c.Error(err)
		return
	}

	busMsg, err := toBusNewMessage(nm)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "toBusNewMessage: %s", err))
		return
	}

	msg, err := h.messageBus.Send(ctx, usr, busMsg)
	switch {
	case errors.Is(err, bus.ErrRecipientNotFound):
		c.Error(errs.New(http.StatusNotFound, "send: %s", err))
		return
	case errors.Is(err, bus.ErrSubjectInvalid), errors.Is(err, bus.ErrBodyInvalid):
		c.Error(errs.New(http.StatusBadRequest, "send: %s", err))
		return
	case err != nil:
		c.Error(errs.New(http.StatusInternalServerError, "send: %s", err))
		return
	}

	c.JSON(http.StatusCreated, toAppMessage(msg))
}

func (h *handler) Inbox(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "message.handler.inbox")
	defer span.End()

	usr, err := currentUser(c)
	if err != nil {
		c.Error(err)
		return
	}

	pg, err := page.Parse(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	unreadOnly := c.Query("unreadOnly") == "true"

	msgs, total, err := h.messageBus.Inbox(ctx, usr.ID, unreadOnly, pg)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "inbox: %s", err))
		return
	}

	c.JSON(http.StatusOK, QueryResult{
		Messages:    toAppMessages(msgs),
		Total:       total,
		Page:        pg.Number,
		RowsPerPage: pg.Rows,
	})
}

func (h *handler) Sent(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "message.handler.sent")
	defer span.End()

	usr, err := currentUser(c)
	if err != nil {
		c.Error(err)
		return
	}

	pg, err := page.Parse(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	msgs, total, err := h.messageBus.Sent(ctx, usr.ID, pg)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "sent: %s", err))
		return
	}

	c.JSON(http.StatusOK, QueryResult{
		Messages:    toAppMessages(msgs),
		Total:       total,
		Page:        pg.Number,
		RowsPerPage: pg.Rows,
	})
}

func (h *handler) MarkRead(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "message.handler.markRead")
	defer span.End()

	usr, err := currentUser(c)
	if err != nil {
		c.Error(err)
		return
	}

	p := c.Param("id")
	msgID, err := uuid.Parse(p)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "invalid message id: %s", p))
		return
	}

	msg, err := h.messageBus.QueryByID(ctx, msgID)
	if errors.Is(err, bus.ErrMessageNotFound) {
		c.Error(errs.New(http.StatusNotFound, "queryByID: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryByID: %s", err))
		return
	}

	read, err := h.messageBus.MarkRead(ctx, msg, usr.ID)
	if errors.Is(err, bus.ErrNotRecipient) {
		c.Error(errs.New(http.StatusForbidden, "markRead: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "markRead: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppMessage(read))
}

func (h *handler) UnreadCount(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "message.handler.unreadCount")
	defer span.End()

	usr, err := currentUser(c)
	if err != nil {
		c.Error(err)
		return
	}

	count, err := h.messageBus.UnreadCount(ctx, usr.ID)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "unreadCount: %s", err))
		return
	}

	c.JSON(http.StatusOK, unreadCount{Count: count})
}

// currentUser pulls the acting user out of the gin context. The authenticate
// middleware puts it there.
func currentUser(c *gin.Context) (userbus.User, error) {
	val, ok := c.Get("user")
	if !ok {
		return userbus.User{}, errs.New(http.StatusUnauthorized, "%s", http.StatusText(http.StatusUnauthorized))
	}

	usr, ok := val.(userbus.User)
	if !ok {
		return userbus.User{}, errs.New(http.StatusUnauthorized, "%s", http.StatusText(http.StatusUnauthorized))
	}

	return usr, nil
}
