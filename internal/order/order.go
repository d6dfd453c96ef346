// Package order provides parsing for query ordering values.
package order

import (
	"fmt"
	"strings"
)

// directions
const (
	ASC  = "ASC"
	DESC = "DESC"
)

var dirs = map[string]string{
	ASC:  ASC,
	DESC: DESC,
}

// Field represents an ordering field and its direction.
type Field struct {
	Val       string
	Direction string
}

// NewField constructs a Field, defaulting the direction to ASC when dir is
// not a known direction.
func NewField(field string, dir string) Field {
	if _, ok := dirs[dir]; !ok {
		return Field{Val: field, Direction: ASC}
	}
	return Field{Val: field, Direction: dir}
}

// Parse constructs a Field from a query value like "createdAt,desc". The
// domainFields set maps the names callers may use to the names the domain
// knows.
func Parse(domainFields map[string]string, query string, domainDefault Field) (Field, error) {
	if query == "" {
		return domainDefault, nil
	}

	orderParts := strings.Split(query, ",")
	fieldName := strings.TrimSpace(orderParts[0])

	validField, ok := domainFields[fieldName]
	if !ok {
		return Field{}, fmt.Errorf("unknown field: %s", fieldName)
	}

	switch len(orderParts) {
	case 1:
		return NewField(validField, ASC), nil
	case 2:
		dir := strings.ToUpper(strings.TrimSpace(orderParts[1]))
		validDir, ok := dirs[dir]
		if !ok {
			return Field{}, fmt.Errorf("unknown direction: %s", orderParts[1])
		}
		return NewField(validField, validDir), nil
	default:
		return Field{}, fmt.Errorf("unknown order: %s", query)
	}
}
