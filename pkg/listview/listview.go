// Package listview composes the admin user listing locally. It filters and
// pages a fetched user set without touching the network, so a screen can
// refine its view as fast as the admin types.
//
// Every function is pure, the input slice is never mutated and relative
// order is always preserved.
package listview

import (
	"strings"

	"github.com/facilops/fixdesk/pkg/adminclient"
)

// Status narrows a listing by the active flag.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Filter describes one view over a user set. The zero value selects
// everyone: no search, no department, no role, status all.
//
// Page is zero based. PageSize must be positive for a page to hold
// anything.
type Filter struct {
	SearchTerm string
	Department string
	Role       string
	Status     Status
	Page       int
	PageSize   int
}

// Result is one composed view.
type Result struct {
	// Users is the requested page of the matched set, in the order the
	// input gave them.
	Users []adminclient.User

	// TotalMatched counts every user passing the filter, not just the
	// ones on this page.
	TotalMatched int

	// TotalPages is how many pages the matched set spans with this
	// page size. Zero when PageSize is not positive.
	TotalPages int

	Page     int
	PageSize int
}

// Compose filters users and cuts out the requested page. A page past the
// end, or a non-positive page size, yields an empty page while the match
// counts stay meaningful.
func Compose(users []adminclient.User, f Filter) Result {
	matched := Select(users, f)

	result := Result{
		TotalMatched: len(matched),
		Page:         f.Page,
		PageSize:     f.PageSize,
	}

	if f.PageSize <= 0 {
		return result
	}

	result.TotalPages = (len(matched) + f.PageSize - 1) / f.PageSize

	start := f.Page * f.PageSize
	if f.Page < 0 || start >= len(matched) {
		return result
	}

	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	result.Users = matched[start:end]
	return result
}

// Select returns every user passing the filter, in input order. Paging
// fields are ignored.
func Select(users []adminclient.User, f Filter) []adminclient.User {
	matched := make([]adminclient.User, 0, len(users))
	for _, usr := range users {
		if Matches(usr, f) {
			matched = append(matched, usr)
		}
	}
	return matched
}

// Matches reports whether a single user passes the filter.
func Matches(usr adminclient.User, f Filter) bool {
	term := strings.ToLower(strings.TrimSpace(f.SearchTerm))
	if term != "" {
		hit := strings.Contains(strings.ToLower(usr.FullName), term) ||
			strings.Contains(strings.ToLower(usr.Email), term) ||
			strings.Contains(strings.ToLower(usr.EmployeeID), term) ||
			strings.Contains(strings.ToLower(usr.Department), term)

		if !hit {
			return false
		}
	}

	if f.Department != "" && usr.Department != f.Department {
		return false
	}

	if f.Role != "" {
		found := false
		for _, r := range usr.Roles {
			if strings.EqualFold(r, f.Role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	switch f.Status {
	case StatusActive:
		if !usr.IsActive {
			return false
		}
	case StatusInactive:
		if usr.IsActive {
			return false
		}
	}

	return true
}
