package bus

import (
	"time"
)

// QueryFilter narrows a user listing. Nil fields filter nothing.
type QueryFilter struct {
	// SearchTerm matches case-insensitively as a substring of the full
	// name, email and employee id. When SearchDepartment is set the
	// department participates too (the unpaginated listing does this).
	SearchTerm       *string
	SearchDepartment bool

	Department     *string
	Role           *Role
	Enabled        *bool
	StartCreatedAt *time.Time
	EndCreatedAt   *time.Time
}
