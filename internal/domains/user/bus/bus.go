// Package bus implements the business rules of the admin user domain.
package bus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/facilops/fixdesk/internal/order"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicatedEmail      = errors.New("email already in use")
	ErrDuplicatedEmployeeID = errors.New("employee id already in use")
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthFailure          = errors.New("invalid email or password")
)

type store interface {
	Create(ctx context.Context, usr User) error
	Update(ctx context.Context, usr User) error
	QueryByID(ctx context.Context, userID uuid.UUID) (User, error)
	QueryByEmail(ctx context.Context, email mail.Address) (User, error)
	Query(ctx context.Context, filter QueryFilter, orderBy order.Field, page page.Page) ([]User, error)
	QueryAll(ctx context.Context, filter QueryFilter) ([]User, error)
	Count(ctx context.Context, filter QueryFilter) (int, error)
	InsertLogin(ctx context.Context, lr LoginRecord) error
	QueryLogins(ctx context.Context, userID uuid.UUID, page page.Page) ([]LoginRecord, int, error)
	InsertActivity(ctx context.Context, ar ActivityRecord) error
	QueryActivity(ctx context.Context, userID uuid.UUID, page page.Page) ([]ActivityRecord, int, error)
	SystemCounts(ctx context.Context) (SystemCounts, error)
	AdjustUnread(ctx context.Context, userID uuid.UUID, delta int) error
}

// Bus coordinates the user domain against an injected store. Anything that
// talks to users goes through here, never to a store directly.
type Bus struct {
	store store
}

func New(store store) *Bus {
	return &Bus{store: store}
}

// Create adds a user. The password is hashed here, counters start at zero.
func (b *Bus) Create(ctx context.Context, nu NewUser) (User, error) {
	if len(nu.Roles) == 0 {
		return User{}, errors.New("a user requires at least one role")
	}

	bs, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("generateFromPassword: %w", err)
	}

	//strip the monotonic clock so timestamps round-trip through the store.
	now := time.Now().Truncate(time.Microsecond)

	usr := User{
		ID:           uuid.New(),
		Email:        nu.Email,
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Department:   nu.Department,
		EmployeeID:   nu.EmployeeID,
		Roles:        nu.Roles,
		PasswordHash: bs,
		Enabled:      nu.Enabled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := b.store.Create(ctx, usr); err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	b.recordActivity(ctx, usr.ID, "user.created", usr.Email.Address)

	return usr, nil
}

// Update applies the mutable fields to usr. Email stays as created.
func (b *Bus) Update(ctx context.Context, usr User, updates UpdateUser) (User, error) {
	if updates.FirstName != nil {
		usr.FirstName = *updates.FirstName
	}

	if updates.LastName != nil {
		usr.LastName = *updates.LastName
	}

	if updates.Department != nil {
		usr.Department = *updates.Department
	}

	if updates.EmployeeID != nil {
		usr.EmployeeID = *updates.EmployeeID
	}

	if updates.Roles != nil {
		usr.Roles = updates.Roles
	}

	if updates.Password != nil {
		bs, err := bcrypt.GenerateFromPassword([]byte(*updates.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("generateFromPassword: %w", err)
		}
		usr.PasswordHash = bs
	}

	if updates.Enabled != nil {
		usr.Enabled = *updates.Enabled
	}

	usr.UpdatedAt = time.Now().Truncate(time.Microsecond)

	if err := b.store.Update(ctx, usr); err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	b.recordActivity(ctx, usr.ID, "user.updated", "")

	return usr, nil
}

// Deactivate is the delete operation of this system: the record is kept
// and the account flagged inactive.
func (b *Bus) Deactivate(ctx context.Context, usr User) (User, error) {
	usr.Enabled = false
	usr.UpdatedAt = time.Now().Truncate(time.Microsecond)

	if err := b.store.Update(ctx, usr); err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	b.recordActivity(ctx, usr.ID, "user.deactivated", "")

	return usr, nil
}

// ToggleEnabled flips the active flag.
func (b *Bus) ToggleEnabled(ctx context.Context, usr User) (User, error) {
	usr.Enabled = !usr.Enabled
	usr.UpdatedAt = time.Now().Truncate(time.Microsecond)

	if err := b.store.Update(ctx, usr); err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	action := "user.deactivated"
	if usr.Enabled {
		action = "user.activated"
	}
	b.recordActivity(ctx, usr.ID, action, "")

	return usr, nil
}

func (b *Bus) QueryByID(ctx context.Context, id uuid.UUID) (User, error) {
	usr, err := b.store.QueryByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("queryByID: %w", err)
	}

	return usr, nil
}

func (b *Bus) QueryByEmail(ctx context.Context, email mail.Address) (User, error) {
	usr, err := b.store.QueryByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("queryByEmail: %w", err)
	}

	return usr, nil
}

func (b *Bus) Query(ctx context.Context, filter QueryFilter, orderBy order.Field, page page.Page) ([]User, error) {
	usrs, err := b.store.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return usrs, nil
}

// QueryAll returns the whole filtered collection without paging. The search
// term additionally matches the department in this variant.
func (b *Bus) QueryAll(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.SearchDepartment = true

	usrs, err := b.store.QueryAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("queryAll: %w", err)
	}

	return usrs, nil
}

func (b *Bus) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return b.store.Count(ctx, filter)
}

// LoginMeta carries request details worth keeping in the login history.
type LoginMeta struct {
	IPAddress string
	UserAgent string
}

// Authenticate verifies the credentials and records the attempt in the
// login history of the matched user.
func (b *Bus) Authenticate(ctx context.Context, email mail.Address, password string, meta LoginMeta) (User, error) {
	usr, err := b.store.QueryByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrAuthFailure
		}
		return User{}, fmt.Errorf("queryByEmail: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		b.recordLogin(ctx, usr.ID, meta, false)
		return User{}, ErrAuthFailure
	}

	now := time.Now().Truncate(time.Microsecond)
	usr.LastLoginAt = &now
	usr.UpdatedAt = now
	if err := b.store.Update(ctx, usr); err != nil {
		return User{}, fmt.Errorf("update lastLoginAt: %w", err)
	}

	b.recordLogin(ctx, usr.ID, meta, true)

	return usr, nil
}

func (b *Bus) LoginHistory(ctx context.Context, userID uuid.UUID, page page.Page) ([]LoginRecord, int, error) {
	records, total, err := b.store.QueryLogins(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("queryLogins: %w", err)
	}

	return records, total, nil
}

func (b *Bus) Activity(ctx context.Context, userID uuid.UUID, page page.Page) ([]ActivityRecord, int, error) {
	records, total, err := b.store.QueryActivity(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("queryActivity: %w", err)
	}

	return records, total, nil
}

// Stats derives the per-user aggregate from the record.
func (b *Bus) Stats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	usr, err := b.store.QueryByID(ctx, userID)
	if err != nil {
		return UserStats{}, fmt.Errorf("queryByID: %w", err)
	}

	return UserStats{
		UserID:           usr.ID,
		TicketsCreated:   usr.TicketsCreated,
		TicketsAssigned:  usr.TicketsAssigned,
		TicketsCompleted: usr.TicketsCompleted,
		CompletionRate:   CompletionRate(usr.TicketsCompleted, usr.TicketsAssigned),
		UnreadMessages:   usr.UnreadMessages,
		LastActivityAt:   usr.LastActivityAt,
	}, nil
}

// SystemCounts aggregates over the whole population.
func (b *Bus) SystemCounts(ctx context.Context) (SystemCounts, error) {
	counts, err := b.store.SystemCounts(ctx)
	if err != nil {
		return SystemCounts{}, fmt.Errorf("systemCounts: %w", err)
	}

	return counts, nil
}

// AdjustUnread shifts a user's unread message counter. The message domain
// calls this when messages are delivered or read.
func (b *Bus) AdjustUnread(ctx context.Context, userID uuid.UUID, delta int) error {
	if err := b.store.AdjustUnread(ctx, userID, delta); err != nil {
		return fmt.Errorf("adjustUnread: %w", err)
	}

	return nil
}

//==============================================================================

// history writes are best effort, a listing must not fail because an audit
// row did not land.

func (b *Bus) recordActivity(ctx context.Context, userID uuid.UUID, action string, detail string) {
	now := time.Now().Truncate(time.Microsecond)

	_ = b.store.InsertActivity(ctx, ActivityRecord{
		ID:      uuid.New(),
		UserID:  userID,
		ActedAt: now,
		Action:  action,
		Detail:  detail,
	})
}

func (b *Bus) recordLogin(ctx context.Context, userID uuid.UUID, meta LoginMeta, success bool) {
	_ = b.store.InsertLogin(ctx, LoginRecord{
		ID:        uuid.New(),
		UserID:    userID,
		LoggedAt:  time.Now().Truncate(time.Microsecond),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   success,
	})
}
