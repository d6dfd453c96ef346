package userdb

import (
	"fmt"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/order"
)

// translates field names from the bus layer to their columns.
var orderByColumns = map[string]string{
	bus.OrderByFirstName:  "first_name",
	bus.OrderByLastName:   "last_name",
	bus.OrderByEmail:      "email",
	bus.OrderByEmployeeID: "employee_id",
	bus.OrderByDepartment: "department",
	bus.OrderByCreatedAt:  "created_at",
	bus.OrderByLastLogin:  "last_login_at",
}

func orderByClause(field order.Field) (string, error) {
	by, ok := orderByColumns[field.Val]
	if !ok {
		return "", fmt.Errorf("%q is not a valid field to order by", field.Val)
	}

	return " ORDER BY " + by + " " + field.Direction, nil
}
