package bus

import (
	"math"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// User represents an admin user record, the canonical entity behind the
// administrative screens.
type User struct {
	ID               uuid.UUID
	Email            mail.Address
	FirstName        string
	LastName         string
	Department       string
	EmployeeID       string
	Roles            []Role
	PasswordHash     []byte
	Enabled          bool
	TicketsCreated   int
	TicketsAssigned  int
	TicketsCompleted int
	UnreadMessages   int
	LastLoginAt      *time.Time
	LastActivityAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName is derived, it is never stored on its own.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// NewUser holds the fields required to create a user.
type NewUser struct {
	Email      mail.Address
	FirstName  string
	LastName   string
	Department string
	EmployeeID string
	Roles      []Role
	Password   string
	Enabled    bool
}

// UpdateUser holds the mutable fields of a user. Email is immutable after
// creation so it is absent here.
type UpdateUser struct {
	FirstName  *string
	LastName   *string
	Department *string
	EmployeeID *string
	Roles      []Role
	Password   *string
	Enabled    *bool
}

//==============================================================================

// LoginRecord is one entry of a user's login history.
type LoginRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	LoggedAt  time.Time
	IPAddress string
	UserAgent string
	Success   bool
}

// ActivityRecord is one entry of a user's administrative activity log.
type ActivityRecord struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	ActedAt time.Time
	Action  string
	Detail  string
}

//==============================================================================

// UserStats is the derived per-user aggregate.
type UserStats struct {
	UserID           uuid.UUID
	TicketsCreated   int
	TicketsAssigned  int
	TicketsCompleted int
	CompletionRate   float64
	UnreadMessages   int
	LastActivityAt   *time.Time
}

// SystemCounts aggregates the whole user population.
type SystemCounts struct {
	TotalUsers    int
	ActiveUsers   int
	InactiveUsers int
	ByDepartment  map[string]int
}

// CompletionRate computes completed/assigned as a percentage rounded to one
// decimal. Zero assigned tickets give a rate of 0.
func CompletionRate(completed int, assigned int) float64 {
	if assigned == 0 {
		return 0
	}
	rate := float64(completed) / float64(assigned) * 100
	return math.Round(rate*10) / 10
}
