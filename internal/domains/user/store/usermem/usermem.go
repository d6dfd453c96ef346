// Package usermem is an in-memory user store. It backs hermetic tests and
// the demo seeding path, postgres deployments use userdb instead. Unlike
// the throwaway globals it replaces, the store is a value you construct and
// inject, so every test gets its own isolated collection.
package usermem

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"sync"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/order"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	users    []bus.User
	logins   map[uuid.UUID][]bus.LoginRecord
	activity map[uuid.UUID][]bus.ActivityRecord
}

func NewStore() *Store {
	return &Store{
		logins:   make(map[uuid.UUID][]bus.LoginRecord),
		activity: make(map[uuid.UUID][]bus.ActivityRecord),
	}
}

func (s *Store) Create(ctx context.Context, usr bus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email.Address, usr.Email.Address) {
			return bus.ErrDuplicatedEmail
		}
		if existing.Enabled && usr.Enabled && existing.EmployeeID == usr.EmployeeID {
			return bus.ErrDuplicatedEmployeeID
		}
	}

	s.users = append(s.users, usr)
	return nil
}

func (s *Store) Update(ctx context.Context, usr bus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, existing := range s.users {
		if existing.ID == usr.ID {
			idx = i
			continue
		}
		if strings.EqualFold(existing.Email.Address, usr.Email.Address) {
			return bus.ErrDuplicatedEmail
		}
		if existing.Enabled && usr.Enabled && existing.EmployeeID == usr.EmployeeID {
			return bus.ErrDuplicatedEmployeeID
		}
	}

	if idx < 0 {
		return bus.ErrUserNotFound
	}

	s.users[idx] = usr
	return nil
}

func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (bus.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if usr.ID == userID {
			return usr, nil
		}
	}

	return bus.User{}, bus.ErrUserNotFound
}

func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (bus.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, usr := range s.users {
		if strings.EqualFold(usr.Email.Address, email.Address) {
			return usr, nil
		}
	}

	return bus.User{}, bus.ErrUserNotFound
}

func (s *Store) Query(ctx context.Context, filter bus.QueryFilter, orderBy order.Field, pg page.Page) ([]bus.User, error) {
	s.mu.RLock()
	filtered := s.filtered(filter)
	s.mu.RUnlock()

	sortUsers(filtered, orderBy)

	return slicePage(filtered, pg), nil
}

func (s *Store) QueryAll(ctx context.Context, filter bus.QueryFilter) ([]bus.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filtered(filter), nil
}

func (s *Store) Count(ctx context.Context, filter bus.QueryFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.filtered(filter)), nil
}

func (s *Store) InsertLogin(ctx context.Context, lr bus.LoginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logins[lr.UserID] = append(s.logins[lr.UserID], lr)
	return nil
}

func (s *Store) QueryLogins(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.LoginRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.logins[userID]

	//most recent first
	sorted := make([]bus.LoginRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LoggedAt.After(sorted[j].LoggedAt)
	})

	return slicePage(sorted, pg), len(records), nil
}

func (s *Store) InsertActivity(ctx context.Context, ar bus.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activity[ar.UserID] = append(s.activity[ar.UserID], ar)

	//the activity log drives the lastActivityAt attribute of the record.
	for i, usr := range s.users {
		if usr.ID == ar.UserID {
			at := ar.ActedAt
			s.users[i].LastActivityAt = &at
			break
		}
	}

	return nil
}

func (s *Store) QueryActivity(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.ActivityRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.activity[userID]

	sorted := make([]bus.ActivityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ActedAt.After(sorted[j].ActedAt)
	})

	return slicePage(sorted, pg), len(records), nil
}

func (s *Store) SystemCounts(ctx context.Context) (bus.SystemCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := bus.SystemCounts{
		ByDepartment: make(map[string]int),
	}

	for _, usr := range s.users {
		counts.TotalUsers++
		if usr.Enabled {
			counts.ActiveUsers++
		} else {
			counts.InactiveUsers++
		}
		if usr.Department != "" {
			counts.ByDepartment[usr.Department]++
		}
	}

	return counts, nil
}

func (s *Store) AdjustUnread(ctx context.Context, userID uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, usr := range s.users {
		if usr.ID != userID {
			continue
		}
		usr.UnreadMessages += delta
		if usr.UnreadMessages < 0 {
			usr.UnreadMessages = 0
		}
		s.users[i] = usr
		return nil
	}

	return bus.ErrUserNotFound
}

//==============================================================================

// filtered returns matching users in insertion order. Callers must hold at
// least the read lock.
func (s *Store) filtered(filter bus.QueryFilter) []bus.User {
	result := make([]bus.User, 0, len(s.users))
	for _, usr := range s.users {
		if matches(usr, filter) {
			result = append(result, usr)
		}
	}
	return result
}

func matches(usr bus.User, filter bus.QueryFilter) bool {
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" {
			hit := strings.Contains(strings.ToLower(usr.FullName()), term) ||
				strings.Contains(strings.ToLower(usr.Email.Address), term) ||
				strings.Contains(strings.ToLower(usr.EmployeeID), term)

			if !hit && filter.SearchDepartment {
				hit = strings.Contains(strings.ToLower(usr.Department), term)
			}

			if !hit {
				return false
			}
		}
	}

	if filter.Department != nil && *filter.Department != "" && usr.Department != *filter.Department {
		return false
	}

	if filter.Role != nil {
		found := false
		for _, r := range usr.Roles {
			if r == *filter.Role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.Enabled != nil && usr.Enabled != *filter.Enabled {
		return false
	}

	if filter.StartCreatedAt != nil && usr.CreatedAt.Before(*filter.StartCreatedAt) {
		return false
	}

	if filter.EndCreatedAt != nil && usr.CreatedAt.After(*filter.EndCreatedAt) {
		return false
	}

	return true
}

func sortUsers(users []bus.User, orderBy order.Field) {
	less := func(a, b bus.User) bool {
		switch orderBy.Val {
		case bus.OrderByFirstName:
			return a.FirstName < b.FirstName
		case bus.OrderByLastName:
			return a.LastName < b.LastName
		case bus.OrderByEmail:
			return a.Email.Address < b.Email.Address
		case bus.OrderByEmployeeID:
			return a.EmployeeID < b.EmployeeID
		case bus.OrderByDepartment:
			return a.Department < b.Department
		case bus.OrderByLastLogin:
			switch {
			case a.LastLoginAt == nil:
				return b.LastLoginAt != nil
			case b.LastLoginAt == nil:
				return false
			default:
				return a.LastLoginAt.Before(*b.LastLoginAt)
			}
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		if orderBy.Direction == order.DESC {
			return less(users[j], users[i])
		}
		return less(users[i], users[j])
	})
}

func slicePage[T any](items []T, pg page.Page) []T {
	offset := pg.Offset()
	if offset >= len(items) {
		return []T{}
	}

	end := min(offset+pg.Rows, len(items))

	return items[offset:end]
}
