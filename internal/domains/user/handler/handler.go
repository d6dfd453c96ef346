// Package handler provides endpoints to manage admin users.
package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/facilops/fixdesk/internal/auth"
	"github.com/facilops/fixdesk/internal/cachedb"
	messagebus "github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/errs"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/facilops/fixdesk/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const systemStatsKey = "stats:system"

// messageTotals is the slice of the messaging domain system statistics need.
type messageTotals interface {
	Totals(ctx context.Context) (messagebus.Totals, error)
}

type handler struct {
	userBus     *bus.Bus
	messages    messageTotals
	cache       *cachedb.Cache
	a           *auth.Auth
	kid         string
	tokenMaxAge time.Duration
	tracer      trace.Tracer
	logger      *logger.Logger
}

func (h *handler) CreateUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.createUser")
	defer span.End()

	var nu newUser
	if err := c.ShouldBindJSON(&nu); err != nil {
		c.Error(err)
		return
	}

	busUser, err := toBusNewUser(nu)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "toBusNewUser: %s", err))
		return
	}

	usr, err := h.userBus.Create(ctx, busUser)
	if errors.Is(err, bus.ErrDuplicatedEmail) || errors.Is(err, bus.ErrDuplicatedEmployeeID) {
		c.Error(errs.New(http.StatusConflict, "create: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "create: %s", err))
		return
	}

	c.JSON(http.StatusCreated, toAppUser(usr))
}

func (h *handler) QueryUserByID(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.queryByID")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toAppUser(usr))
}

func (h *handler) UpdateUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.updateUser")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	var uu updateUser
	if err := c.ShouldBindJSON(&uu); err != nil {
		c.Error(err)
		return
	}

	updates, err := toBusUpdateUser(uu)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "toBusUpdateUser: %s", err))
		return
	}

	updated, err := h.userBus.Update(ctx, usr, updates)
	if errors.Is(err, bus.ErrDuplicatedEmployeeID) {
		c.Error(errs.New(http.StatusConflict, "update: %s", err))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "update: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppUser(updated))
}

// DeleteUser deactivates the user. Records are kept so message history and
// statistics stay intact, the account simply can no longer sign in.
func (h *handler) DeleteUser(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.deleteUser")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	deactivated, err := h.userBus.Deactivate(ctx, usr)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "deactivate: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppUser(deactivated))
}

func (h *handler) ToggleUserStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.toggleUserStatus")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	toggled, err := h.userBus.ToggleEnabled(ctx, usr)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "toggleEnabled: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppUser(toggled))
}

func (h *handler) Query(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.query")
	defer span.End()

	pg, err := page.Parse(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	var filters Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Error(err)
		return
	}

	filter, err := filters.ToBusQueryFilter()
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse filters: %s", err))
		return
	}

	orderBy, err := bus.ParseOrderBy(c.Query("orderBy"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse orderBy: %s", err))
		return
	}

	users, err := h.userBus.Query(ctx, filter, orderBy, pg)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "query: %s", err))
		return
	}

	total, err := h.userBus.Count(ctx, filter)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "count: %s", err))
		return
	}

	c.JSON(http.StatusOK, newQueryResult(toAppUsers(users), total, pg.Number, pg.Rows))
}

// QueryAll returns every matching user without pagination. The admin screens
// filter and page this set locally.
func (h *handler) QueryAll(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.queryAll")
	defer span.End()

	var filters Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Error(err)
		return
	}

	filter, err := filters.ToBusQueryFilter()
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse filters: %s", err))
		return
	}

	users, err := h.userBus.QueryAll(ctx, filter)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "queryAll: %s", err))
		return
	}

	c.JSON(http.StatusOK, newQueryResult(toAppUsers(users), len(users), 1, len(users)))
}

func (h *handler) LoginHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.loginHistory")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	pg, err := page.Parse(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	records, total, err := h.userBus.LoginHistory(ctx, usr.ID, pg)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "loginHistory: %s", err))
		return
	}

	result := loginHistoryResult{
		Logins:      toAppLoginRecords(records),
		Total:       total,
		Page:        pg.Number,
		RowsPerPage: pg.Rows,
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) Activity(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.activity")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	pg, err := page.Parse(c.Query("pageNumber"), c.Query("pageSize"))
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parse page: %s", err))
		return
	}

	records, total, err := h.userBus.Activity(ctx, usr.ID, pg)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "activity: %s", err))
		return
	}

	result := activityResult{
		Activities:  toAppActivityRecords(records),
		Total:       total,
		Page:        pg.Number,
		RowsPerPage: pg.Rows,
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) UserStatistics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.userStatistics")
	defer span.End()

	usr, err := h.userByParam(ctx, c)
	if err != nil {
		c.Error(err)
		return
	}

	stats, err := h.userBus.Stats(ctx, usr.ID)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "stats: %s", err))
		return
	}

	c.JSON(http.StatusOK, toAppUserStats(stats))
}

func (h *handler) SystemStatistics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.systemStatistics")
	defer span.End()

	// cache miss and cache failure both fall through to the live numbers
	if h.cache != nil {
		var cached systemStats
		found, err := h.cache.GetJSON(ctx, systemStatsKey, &cached)
		if err != nil {
			h.logger.Warn(ctx, "stats cache read failed", "error", err.Error())
		}
		if found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	counts, err := h.userBus.SystemCounts(ctx)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "systemCounts: %s", err))
		return
	}

	totals, err := h.messages.Totals(ctx)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "totals: %s", err))
		return
	}

	stats := systemStats{
		TotalUsers:        counts.TotalUsers,
		ActiveUsers:       counts.ActiveUsers,
		InactiveUsers:     counts.InactiveUsers,
		UsersByDepartment: counts.ByDepartment,
		TotalMessages:     totals.TotalMessages,
		UnreadMessages:    totals.UnreadMessages,
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, systemStatsKey, stats); err != nil {
			h.logger.Warn(ctx, "stats cache write failed", "error", err.Error())
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *handler) Authenticate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "user.handler.authenticate")
	defer span.End()

	var creds authenticate
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.Error(err)
		return
	}

	email, err := mail.ParseAddress(creds.Email)
	if err != nil {
		c.Error(errs.New(http.StatusBadRequest, "parseAddress: %s", err))
		return
	}

	meta := bus.LoginMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	usr, err := h.userBus.Authenticate(ctx, *email, creds.Password, meta)
	if errors.Is(err, bus.ErrAuthFailure) || errors.Is(err, bus.ErrUserNotFound) {
		c.Error(errs.New(http.StatusUnauthorized, "invalid credentials"))
		return
	}

	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "authenticate: %s", err))
		return
	}

	appUser := toAppUser(usr)
	claims := auth.Claims{
		Roles: appUser.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.a.Issuer(),
			Subject:   appUser.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenMaxAge)),
		},
	}

	token, err := h.a.GenerateToken(h.kid, claims)
	if err != nil {
		c.Error(errs.New(http.StatusInternalServerError, "generateToken: %s", err))
		return
	}

	appUser.Token = token
	c.JSON(http.StatusOK, appUser)
}

// userByParam resolves the ":id" path param to a user or returns an error
// ready to hand to the error middleware.
func (h *handler) userByParam(ctx context.Context, c *gin.Context) (bus.User, error) {
	p := c.Param("id")

	userID, err := uuid.Parse(p)
	if err != nil {
		return bus.User{}, errs.New(http.StatusBadRequest, "invalid user id: %s", p)
	}

	usr, err := h.userBus.QueryByID(ctx, userID)
	if errors.Is(err, bus.ErrUserNotFound) {
		return bus.User{}, errs.New(http.StatusNotFound, "queryByID: %s", err)
	}

	if err != nil {
		return bus.User{}, errs.New(http.StatusInternalServerError, "queryByID: %s", err)
	}

	return usr, nil
}
