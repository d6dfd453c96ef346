package adminclient

// User is the admin user record the way the API serves it. FullName comes
// precomputed from the server, IsActive doubles as the delete marker since
// deleting a user deactivates it.
type User struct {
	ID               string   `json:"id" validate:"required,uuid"`
	Email            string   `json:"email" validate:"required,email"`
	FirstName        string   `json:"firstName" validate:"required"`
	LastName         string   `json:"lastName" validate:"required"`
	FullName         string   `json:"fullName" validate:"required"`
	Department       string   `json:"department"`
	EmployeeID       string   `json:"employeeId" validate:"required"`
	Roles            []string `json:"roles" validate:"gt=0,dive,oneof=admin manager technician user"`
	IsActive         bool     `json:"isActive"`
	TicketsCreated   int      `json:"totalTicketsCreated" validate:"gte=0"`
	TicketsAssigned  int      `json:"totalTicketsAssigned" validate:"gte=0"`
	TicketsCompleted int      `json:"totalTicketsCompleted" validate:"gte=0"`
	UnreadMessages   int      `json:"unreadMessages" validate:"gte=0"`
	LastLoginAt      *string  `json:"lastLoginAt"`
	LastActivityAt   *string  `json:"lastActivityAt"`
	CreatedAt        string   `json:"createdAt" validate:"required"`
	UpdatedAt        string   `json:"updatedAt" validate:"required"`
	Token            string   `json:"token,omitempty"`
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users       []User `json:"users" validate:"dive"`
	Total       int    `json:"total" validate:"gte=0"`
	Page        int    `json:"page" validate:"gte=1"`
	RowsPerPage int    `json:"rowsPerPage" validate:"gte=0"`
}

// NewUser is the payload for creating a user. A nil IsActive leaves the
// account active.
type NewUser struct {
	Email           string   `json:"email"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Department      string   `json:"department,omitempty"`
	EmployeeID      string   `json:"employeeId"`
	Roles           []string `json:"roles"`
	Password        string   `json:"password"`
	PasswordConfirm string   `json:"passwordConfirm"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// UpdateUser carries partial updates, nil fields stay untouched. Email is
// immutable and therefore absent.
type UpdateUser struct {
	FirstName       *string  `json:"firstName,omitempty"`
	LastName        *string  `json:"lastName,omitempty"`
	Department      *string  `json:"department,omitempty"`
	EmployeeID      *string  `json:"employeeId,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Password        *string  `json:"password,omitempty"`
	PasswordConfirm *string  `json:"passwordConfirm,omitempty"`
	IsActive        *bool    `json:"isActive,omitempty"`
}

// ==============================================================================

type LoginRecord struct {
	ID        string `json:"id" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"required,uuid"`
	LoggedAt  string `json:"loggedAt" validate:"required"`
	IPAddress string `json:"ipAddress"`
	UserAgent string `json:"userAgent"`
	Success   bool   `json:"success"`
}

type LoginHistoryPage struct {
	Logins      []LoginRecord `json:"logins" validate:"dive"`
	Total       int           `json:"total" validate:"gte=0"`
	Page        int           `json:"page" validate:"gte=1"`
	RowsPerPage int           `json:"rowsPerPage" validate:"gte=0"`
}

type ActivityRecord struct {
	ID      string `json:"id" validate:"required,uuid"`
	UserID  string `json:"userId" validate:"required,uuid"`
	ActedAt string `json:"actedAt" validate:"required"`
	Action  string `json:"action" validate:"required"`
	Detail  string `json:"detail"`
}

type ActivityPage struct {
	Activities  []ActivityRecord `json:"activities" validate:"dive"`
	Total       int              `json:"total" validate:"gte=0"`
	Page        int              `json:"page" validate:"gte=1"`
	RowsPerPage int              `json:"rowsPerPage" validate:"gte=0"`
}

// ==============================================================================

// UserStatistics is the per-user aggregate. CompletionRate is a percentage
// rounded to one decimal, zero when no tickets were assigned.
type UserStatistics struct {
	UserID           string  `json:"userId" validate:"required,uuid"`
	TicketsCreated   int     `json:"totalTicketsCreated" validate:"gte=0"`
	TicketsAssigned  int     `json:"totalTicketsAssigned" validate:"gte=0"`
	TicketsCompleted int     `json:"totalTicketsCompleted" validate:"gte=0"`
	CompletionRate   float64 `json:"completionRate" validate:"gte=0,lte=100"`
	UnreadMessages   int     `json:"unreadMessages" validate:"gte=0"`
	LastActivityAt   *string `json:"lastActivityAt"`
}

type SystemStatistics struct {
	TotalUsers        int            `json:"totalUsers" validate:"gte=0"`
	ActiveUsers       int            `json:"activeUsers" validate:"gte=0"`
	InactiveUsers     int            `json:"inactiveUsers" validate:"gte=0"`
	UsersByDepartment map[string]int `json:"usersByDepartment"`
	TotalMessages     int            `json:"totalMessages" validate:"gte=0"`
	UnreadMessages    int            `json:"unreadMessages" validate:"gte=0"`
	GeneratedAt       string         `json:"generatedAt" validate:"required"`
}

// ==============================================================================

type Message struct {
	ID           string  `json:"id" validate:"required,uuid"`
	FromUserID   string  `json:"fromUserId" validate:"required,uuid"`
	FromUserName string  `json:"fromUserName" validate:"required"`
	ToUserID     string  `json:"toUserId" validate:"required,uuid"`
	ToUserName   string  `json:"toUserName" validate:"required"`
	Subject      string  `json:"subject" validate:"required"`
	Body         string  `json:"body" validate:"required"`
	MessageType  string  `json:"messageType" validate:"required,oneof=General Task Alert Announcement"`
	IsRead       bool    `json:"isRead"`
	ReadAt       *string `json:"readAt"`
	CreatedAt    string  `json:"createdAt" validate:"required"`
}

type MessagePage struct {
	Messages    []Message `json:"messages" validate:"dive"`
	Total       int       `json:"total" validate:"gte=0"`
	Page        int       `json:"page" validate:"gte=1"`
	RowsPerPage int       `json:"rowsPerPage" validate:"gte=0"`
}

type NewMessage struct {
	ToUserID    string `json:"toUserId"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	MessageType string `json:"messageType"`
}

type UnreadCount struct {
	Count int `json:"count" validate:"gte=0"`
}
