package bus

import (
	"github.com/facilops/fixdesk/internal/order"
)

const (
	OrderByFirstName  = "firstName"
	OrderByLastName   = "lastName"
	OrderByEmail      = "email"
	OrderByEmployeeID = "employeeId"
	OrderByDepartment = "department"
	OrderByCreatedAt  = "createdAt"
	OrderByLastLogin  = "lastLoginAt"
)

var orderByFields = map[string]string{
	OrderByFirstName:  OrderByFirstName,
	OrderByLastName:   OrderByLastName,
	OrderByEmail:      OrderByEmail,
	OrderByEmployeeID: OrderByEmployeeID,
	OrderByDepartment: OrderByDepartment,
	OrderByCreatedAt:  OrderByCreatedAt,
	OrderByLastLogin:  OrderByLastLogin,
}

// DefaultOrderBy keeps listings in insertion order.
var DefaultOrderBy = order.NewField(OrderByCreatedAt, order.ASC)

// ParseOrderBy constructs an ordering from a query value like
// "firstName,desc".
func ParseOrderBy(query string) (order.Field, error) {
	return order.Parse(orderByFields, query, DefaultOrderBy)
}
