package handler

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
)

type user struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	FullName         string   `json:"fullName"`
	Department       string   `json:"department"`
	EmployeeID       string   `json:"employeeId"`
	Roles            []string `json:"roles"`
	IsActive         bool     `json:"isActive"`
	TicketsCreated   int      `json:"totalTicketsCreated"`
	TicketsAssigned  int      `json:"totalTicketsAssigned"`
	TicketsCompleted int      `json:"totalTicketsCompleted"`
	UnreadMessages   int      `json:"unreadMessages"`
	LastLoginAt      *string  `json:"lastLoginAt"`
	LastActivityAt   *string  `json:"lastActivityAt"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
	Token            string   `json:"token,omitempty"`
}

func toAppUser(usr bus.User) user {
	return user{
		ID:               usr.ID.String(),
		Email:            usr.Email.Address,
		FirstName:        usr.FirstName,
		LastName:         usr.LastName,
		FullName:         usr.FullName(),
		Department:       usr.Department,
		EmployeeID:       usr.EmployeeID,
		Roles:            bus.RolesToString(usr.Roles),
		IsActive:         usr.Enabled,
		TicketsCreated:   usr.TicketsCreated,
		TicketsAssigned:  usr.TicketsAssigned,
		TicketsCompleted: usr.TicketsCompleted,
		UnreadMessages:   usr.UnreadMessages,
		LastLoginAt:      formatTimePtr(usr.LastLoginAt),
		LastActivityAt:   formatTimePtr(usr.LastActivityAt),
		CreatedAt:        usr.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        usr.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(users []bus.User) []user {
	app := make([]user, len(users))
	for i, usr := range users {
		app[i] = toAppUser(usr)
	}
	return app
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ==============================================================================

type QueryResult struct {
	Users       []user `json:"users"`
	Total       int    `json:"total"`
	Page        int    `json:"page"`
	RowsPerPage int    `json:"rowsPerPage"`
}

func newQueryResult(users []user, total int, page int, rows int) QueryResult {
	return QueryResult{
		Users:       users,
		Total:       total,
		Page:        page,
		RowsPerPage: rows,
	}
}

// ==============================================================================

type newUser struct {
	Email           string   `json:"email" binding:"required,email"`
	FirstName       string   `json:"firstName" binding:"required,min=1,max=100"`
	LastName        string   `json:"lastName" binding:"required,min=1,max=100"`
	Department      string   `json:"department" binding:"omitempty,max=100"`
	EmployeeID      string   `json:"employeeId" binding:"required,min=1,max=50"`
	Roles           []string `json:"roles" binding:"gt=0,dive,required,oneof=admin manager technician user"`
	Password        string   `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirm string   `json:"passwordConfirm" binding:"required,eqfield=Password"`
	IsActive        *bool    `json:"isActive"`
}

func toBusNewUser(nu newUser) (bus.NewUser, error) {
	roles, err := bus.ParseManyRoles(nu.Roles)
	if err != nil {
		return bus.NewUser{}, fmt.Errorf("parseManyRoles: %w", err)
	}

	email, err := mail.ParseAddress(nu.Email)
	if err != nil {
		return bus.NewUser{}, fmt.Errorf("parseAddress: %w", err)
	}

	// a new user is active unless the request says otherwise
	enabled := true
	if nu.IsActive != nil {
		enabled = *nu.IsActive
	}

	return bus.NewUser{
		Email:      *email,
		FirstName:  nu.FirstName,
		LastName:   nu.LastName,
		Department: nu.Department,
		EmployeeID: nu.EmployeeID,
		Roles:      roles,
		Password:   nu.Password,
		Enabled:    enabled,
	}, nil
}

// ==============================================================================

type updateUser struct {
	FirstName       *string  `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName        *string  `json:"lastName" binding:"omitempty,min=1,max=100"`
	Department      *string  `json:"department" binding:"omitempty,max=100"`
	EmployeeID      *string  `json:"employeeId" binding:"omitempty,min=1,max=50"`
	Roles           []string `json:"roles" binding:"omitempty,dive,oneof=admin manager technician user"`
	Password        *string  `json:"password" binding:"omitempty,min=8,max=128"`
	PasswordConfirm *string  `json:"passwordConfirm" binding:"omitempty,eqfield=Password"`
	IsActive        *bool    `json:"isActive"`
}

func toBusUpdateUser(uu updateUser) (bus.UpdateUser, error) {
	var roles []bus.Role
	if len(uu.Roles) != 0 {
		parsed, err := bus.ParseManyRoles(uu.Roles)
		if err != nil {
			return bus.UpdateUser{}, fmt.Errorf("parseManyRoles: %w", err)
		}
		roles = parsed
	}

	return bus.UpdateUser{
		FirstName:  uu.FirstName,
		LastName:   uu.LastName,
		Department: uu.Department,
		EmployeeID: uu.EmployeeID,
		Roles:      roles,
		Password:   uu.Password,
		Enabled:    uu.IsActive,
	}, nil
}

// ==============================================================================

type authenticate struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// ==============================================================================

type loginRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	LoggedAt  string `json:"loggedAt"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	Success   bool   `json:"success"`
}

type loginHistoryResult struct {
	Logins      []loginRecord `json:"logins"`
	Total       int           `json:"total"`
	Page        int           `json:"page"`
	RowsPerPage int           `json:"rowsPerPage"`
}

func toAppLoginRecords(records []bus.LoginRecord) []loginRecord {
	app := make([]loginRecord, len(records))
	for i, lr := range records {
		app[i] = loginRecord{
			ID:        lr.ID.String(),
			UserID:    lr.UserID.String(),
			LoggedAt:  lr.LoggedAt.Format(time.RFC3339),
			IPAddress: lr.IPAddress,
			UserAgent: lr.UserAgent,
			Success:   lr.Success,
		}
	}
	return app
}

type activityRecord struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	ActedAt string `json:"actedAt"`
	Action  string `json:"action"`
	Detail  string `json:"detail"`
}

type activityResult struct {
	Activities  []activityRecord `json:"activities"`
	Total       int              `json:"total"`
	Page        int              `json:"page"`
	RowsPerPage int              `json:"rowsPerPage"`
}

func toAppActivityRecords(records []bus.ActivityRecord) []activityRecord {
	app := make([]activityRecord, len(records))
	for i, ar := range records {
		app[i] = activityRecord{
			ID:      ar.ID.String(),
			UserID:  ar.UserID.String(),
			ActedAt: ar.ActedAt.Format(time.RFC3339),
			Action:  ar.Action,
			Detail:  ar.Detail,
		}
	}
	return app
}

// ==============================================================================

type userStats struct {
	UserID           string  `json:"userId"`
	TicketsCreated   int     `json:"totalTicketsCreated"`
	TicketsAssigned  int     `json:"totalTicketsAssigned"`
	TicketsCompleted int     `json:"totalTicketsCompleted"`
	CompletionRate   float64 `json:"completionRate"`
	UnreadMessages   int     `json:"unreadMessages"`
	LastActivityAt   *string `json:"lastActivityAt"`
}

func toAppUserStats(stats bus.UserStats) userStats {
	return userStats{
		UserID:           stats.UserID.String(),
		TicketsCreated:   stats.TicketsCreated,
		TicketsAssigned:  stats.TicketsAssigned,
		TicketsCompleted: stats.TicketsCompleted,
		CompletionRate:   stats.CompletionRate,
		UnreadMessages:   stats.UnreadMessages,
		LastActivityAt:   formatTimePtr(stats.LastActivityAt),
	}
}

type systemStats struct {
	TotalUsers        int            `json:"totalUsers"`
	ActiveUsers       int            `json:"activeUsers"`
	InactiveUsers     int            `json:"inactiveUsers"`
	UsersByDepartment map[string]int `json:"usersByDepartment"`
	TotalMessages     int            `json:"totalMessages"`
	UnreadMessages    int            `json:"unreadMessages"`
	GeneratedAt       string         `json:"generatedAt"`
}
