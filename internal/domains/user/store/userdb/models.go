package userdb

import (
	"database/sql"
	"net/mail"
	"time"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/google/uuid"
)

type user struct {
	ID               uuid.UUID      `db:"id"`
	Email            string         `db:"email"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	Department       sql.NullString `db:"department"`
	EmployeeID       string         `db:"employee_id"`
	Roles            bus.RoleSlice  `db:"roles"`
	PasswordHash     []byte         `db:"password_hash"`
	Enabled          bool           `db:"enabled"`
	TicketsCreated   int            `db:"tickets_created"`
	TicketsAssigned  int            `db:"tickets_assigned"`
	TicketsCompleted int            `db:"tickets_completed"`
	UnreadMessages   int            `db:"unread_messages"`
	LastLoginAt      *time.Time     `db:"last_login_at"`
	LastActivityAt   *time.Time     `db:"last_activity_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func fromBusUser(usr bus.User) user {
	return user{
		ID:        usr.ID,
		Email:     usr.Email.Address,
		FirstName: usr.FirstName,
		LastName:  usr.LastName,
		Department: sql.NullString{
			String: usr.Department,
			Valid:  usr.Department != "",
		},
		EmployeeID:       usr.EmployeeID,
		Roles:            bus.RoleSlice(usr.Roles),
		PasswordHash:     usr.PasswordHash,
		Enabled:          usr.Enabled,
		TicketsCreated:   usr.TicketsCreated,
		TicketsAssigned:  usr.TicketsAssigned,
		TicketsCompleted: usr.TicketsCompleted,
		UnreadMessages:   usr.UnreadMessages,
		LastLoginAt:      usr.LastLoginAt,
		LastActivityAt:   usr.LastActivityAt,
		CreatedAt:        usr.CreatedAt,
		UpdatedAt:        usr.UpdatedAt,
	}
}

func toBusUser(usr user) bus.User {
	email := mail.Address{
		Name:    usr.FirstName + " " + usr.LastName,
		Address: usr.Email,
	}

	return bus.User{
		ID:               usr.ID,
		Email:            email,
		FirstName:        usr.FirstName,
		LastName:         usr.LastName,
		Department:       usr.Department.String,
		EmployeeID:       usr.EmployeeID,
		Roles:            []bus.Role(usr.Roles),
		PasswordHash:     usr.PasswordHash,
		Enabled:          usr.Enabled,
		TicketsCreated:   usr.TicketsCreated,
		TicketsAssigned:  usr.TicketsAssigned,
		TicketsCompleted: usr.TicketsCompleted,
		UnreadMessages:   usr.UnreadMessages,
		LastLoginAt:      usr.LastLoginAt,
		LastActivityAt:   usr.LastActivityAt,
		CreatedAt:        usr.CreatedAt,
		UpdatedAt:        usr.UpdatedAt,
	}
}

//==============================================================================

type loginRecord struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	LoggedAt  time.Time `db:"logged_at"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	Success   bool      `db:"success"`
}

func fromBusLogin(lr bus.LoginRecord) loginRecord {
	return loginRecord(lr)
}

func toBusLogin(lr loginRecord) bus.LoginRecord {
	return bus.LoginRecord(lr)
}

type activityRecord struct {
	ID      uuid.UUID `db:"id"`
	UserID  uuid.UUID `db:"user_id"`
	ActedAt time.Time `db:"acted_at"`
	Action  string    `db:"action"`
	Detail  string    `db:"detail"`
}

func fromBusActivity(ar bus.ActivityRecord) activityRecord {
	return activityRecord(ar)
}

func toBusActivity(ar activityRecord) bus.ActivityRecord {
	return bus.ActivityRecord(ar)
}
