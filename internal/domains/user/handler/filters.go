package handler

import (
	"time"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
)

type Filters struct {
	Search         *string `form:"searchTerm" binding:"omitempty,max=200"`
	Department     *string `form:"department" binding:"omitempty,max=100"`
	Role           *string `form:"role" binding:"omitempty,oneof=admin manager technician user"`
	IsActive       *bool   `form:"isActive"`
	StartCreatedAt *string `form:"startCreatedAt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"` //RFC3339
	EndCreatedAt   *string `form:"endCreatedAt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`   //RFC3339
}

func (f Filters) ToBusQueryFilter() (bus.QueryFilter, error) {
	var filter bus.QueryFilter

	filter.SearchTerm = f.Search
	filter.Department = f.Department
	filter.Enabled = f.IsActive

	if f.Role != nil {
		role, err := bus.ParseRole(*f.Role)
		if err != nil {
			return bus.QueryFilter{}, err
		}
		filter.Role = &role
	}

	if f.StartCreatedAt != nil {
		start, err := time.Parse(time.RFC3339, *f.StartCreatedAt)
		if err != nil {
			return bus.QueryFilter{}, err
		}
		filter.StartCreatedAt = &start
	}

	if f.EndCreatedAt != nil {
		end, err := time.Parse(time.RFC3339, *f.EndCreatedAt)
		if err != nil {
			return bus.QueryFilter{}, err
		}
		filter.EndCreatedAt = &end
	}

	return filter, nil
}
