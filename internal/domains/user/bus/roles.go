package bus

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

var (
	RoleAdmin      = newRole("admin")
	RoleManager    = newRole("manager")
	RoleTechnician = newRole("technician")
	RoleUser       = newRole("user")
)

// Role represents a role tag on an admin user. A custom type so parsing is
// the only way to construct one.
type Role struct {
	value string
}

var validRoles = make(map[string]Role)

func newRole(val string) Role {
	r := Role{value: val}
	validRoles[val] = r
	return r
}

func (r Role) String() string {
	return r.value
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// ParseRole validates val against the known roles.
func ParseRole(val string) (Role, error) {
	r, ok := validRoles[val]
	if !ok {
		return Role{}, fmt.Errorf("invalid role: %s", val)
	}
	return r, nil
}

func ParseManyRoles(rr []string) ([]Role, error) {
	res := make([]Role, len(rr))
	for i, r := range rr {
		role, err := ParseRole(r)
		if err != nil {
			return nil, err
		}
		res[i] = role
	}
	return res, nil
}

func RolesToString(roles []Role) []string {
	res := make([]string, len(roles))
	for i, r := range roles {
		res[i] = r.value
	}
	return res
}

//==============================================================================

// RoleSlice handles the postgres TEXT[] representation of a role set.
type RoleSlice []Role

// Scan implements sql.Scanner.
func (rs *RoleSlice) Scan(val any) error {
	if val == nil {
		*rs = RoleSlice{}
		return nil
	}

	switch v := val.(type) {
	case []byte:
		return rs.parsePostgresArray(string(v))
	case string:
		return rs.parsePostgresArray(v)
	default:
		return fmt.Errorf("unsupported type for role slice: %T", v)
	}
}

// Value implements driver.Valuer.
func (rs RoleSlice) Value() (driver.Value, error) {
	if len(rs) == 0 {
		return "{}", nil
	}

	// Format: {"admin","technician"}
	quoted := make([]string, len(rs))
	for i, role := range rs {
		escaped := strings.ReplaceAll(role.String(), `"`, `""`)
		quoted[i] = `"` + escaped + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}", nil
}

func (rs *RoleSlice) parsePostgresArray(arr string) error {
	s := strings.Trim(arr, "{}")
	if s == "" {
		*rs = RoleSlice{}
		return nil
	}

	var elements []string
	var current strings.Builder
	inQuotes := false
	escapeNext := false

	for _, ch := range s {
		switch {
		case escapeNext:
			current.WriteRune(ch)
			escapeNext = false
		case ch == '\\':
			escapeNext = true
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			elements = append(elements, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		elements = append(elements, current.String())
	}

	roles := make([]Role, len(elements))
	for i, elem := range elements {
		elem = strings.Trim(elem, `"`)

		r, err := ParseRole(elem)
		if err != nil {
			return fmt.Errorf("parseRole from DB: %w", err)
		}
		roles[i] = r
	}

	*rs = roles
	return nil
}
