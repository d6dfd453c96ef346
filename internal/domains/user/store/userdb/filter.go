package userdb

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
)

func applyFilters(filter bus.QueryFilter, data map[string]any, buf *bytes.Buffer) {
	var whereClause []string

	if filter.SearchTerm != nil {
		if term := strings.TrimSpace(*filter.SearchTerm); term != "" {
			data["search_term"] = fmt.Sprintf("%%%s%%", term)

			search := `(first_name || ' ' || last_name) ILIKE :search_term OR email ILIKE :search_term OR employee_id ILIKE :search_term`
			if filter.SearchDepartment {
				search += ` OR department ILIKE :search_term`
			}
			whereClause = append(whereClause, "("+search+")")
		}
	}

	if filter.Department != nil && *filter.Department != "" {
		data["department"] = *filter.Department
		whereClause = append(whereClause, "department = :department")
	}

	if filter.Role != nil {
		data["role"] = filter.Role.String()
		whereClause = append(whereClause, ":role = ANY(roles)")
	}

	if filter.Enabled != nil {
		data["enabled"] = *filter.Enabled
		whereClause = append(whereClause, "enabled = :enabled")
	}

	if filter.StartCreatedAt != nil {
		data["start_created_at"] = filter.StartCreatedAt.UTC()
		whereClause = append(whereClause, "created_at >= :start_created_at")
	}

	if filter.EndCreatedAt != nil {
		data["end_created_at"] = filter.EndCreatedAt.UTC()
		whereClause = append(whereClause, "created_at <= :end_created_at")
	}

	if len(whereClause) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(whereClause, " AND "))
	}
}
