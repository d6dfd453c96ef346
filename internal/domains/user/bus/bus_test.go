package bus_test

import (
	"context"
	"errors"
	"net/mail"
	"testing"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/usermem"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/crypto/bcrypt"
)

func newBus() *bus.Bus {
	return bus.New(usermem.NewStore())
}

func seedUser(t *testing.T, b *bus.Bus, first, last, email, dept, empID string, roles []bus.Role) bus.User {
	t.Helper()

	usr, err := b.Create(context.Background(), bus.NewUser{
		Email:      mail.Address{Address: email},
		FirstName:  first,
		LastName:   last,
		Department: dept,
		EmployeeID: empID,
		Roles:      roles,
		Password:   "test12345",
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("seeding user %s: %s", email, err)
	}
	return usr
}

func Test_CreateUser(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	nu := bus.NewUser{
		Email:      mail.Address{Address: "james.wilson@fixdesk.io"},
		FirstName:  "James",
		LastName:   "Wilson",
		Department: "IT",
		EmployeeID: "EMP-001",
		Roles:      []bus.Role{bus.RoleAdmin},
		Password:   "test12345",
		Enabled:    true,
	}

	usr, err := b.Create(ctx, nu)
	if err != nil {
		t.Fatalf("create: %s", err)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(nu.Password)); err != nil {
		t.Fatalf("password hash does not match: %s", err)
	}

	if usr.FullName() != "James Wilson" {
		t.Fatalf("fullName = %q, want %q", usr.FullName(), "James Wilson")
	}

	if usr.TicketsCreated != 0 || usr.TicketsAssigned != 0 || usr.TicketsCompleted != 0 || usr.UnreadMessages != 0 {
		t.Fatal("counters must start at zero")
	}

	fetched, err := b.QueryByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}

	// the creation audit entry stamps lastActivityAt on the stored record
	opts := []cmp.Option{
		cmp.AllowUnexported(bus.Role{}),
		cmpopts.IgnoreFields(bus.User{}, "LastActivityAt"),
	}
	if diff := cmp.Diff(usr, fetched, opts...); diff != "" {
		t.Fatalf("stored user differs: %s", diff)
	}

	// creation lands in the activity log
	activity, total, err := b.Activity(ctx, usr.ID, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("activity: %s", err)
	}
	if total != 1 || activity[0].Action != "user.created" {
		t.Fatalf("expected one user.created entry, got %d entries", total)
	}
}

func Test_CreateRequiresRole(t *testing.T) {
	t.Parallel()

	b := newBus()

	_, err := b.Create(context.Background(), bus.NewUser{
		Email:      mail.Address{Address: "norole@fixdesk.io"},
		FirstName:  "No",
		LastName:   "Role",
		EmployeeID: "EMP-900",
		Password:   "test12345",
	})
	if err == nil {
		t.Fatal("expected an error for a user without roles")
	}
}

func Test_DuplicateEmail(t *testing.T) {
	t.Parallel()

	b := newBus()
	seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	_, err := b.Create(context.Background(), bus.NewUser{
		Email:      mail.Address{Address: "James.Wilson@fixdesk.io"},
		FirstName:  "Other",
		LastName:   "Person",
		EmployeeID: "EMP-002",
		Roles:      []bus.Role{bus.RoleUser},
		Password:   "test12345",
		Enabled:    true,
	})

	if !errors.Is(err, bus.ErrDuplicatedEmail) {
		t.Fatalf("err = %v, want ErrDuplicatedEmail", err)
	}
}

func Test_DuplicateEmployeeIDAmongActive(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	first := seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	_, err := b.Create(ctx, bus.NewUser{
		Email:      mail.Address{Address: "second@fixdesk.io"},
		FirstName:  "Second",
		LastName:   "User",
		EmployeeID: "EMP-001",
		Roles:      []bus.Role{bus.RoleUser},
		Password:   "test12345",
		Enabled:    true,
	})
	if !errors.Is(err, bus.ErrDuplicatedEmployeeID) {
		t.Fatalf("err = %v, want ErrDuplicatedEmployeeID", err)
	}

	// once the holder is deactivated the employee id is free again
	if _, err := b.Deactivate(ctx, first); err != nil {
		t.Fatalf("deactivate: %s", err)
	}

	if _, err := b.Create(ctx, bus.NewUser{
		Email:      mail.Address{Address: "second@fixdesk.io"},
		FirstName:  "Second",
		LastName:   "User",
		EmployeeID: "EMP-001",
		Roles:      []bus.Role{bus.RoleUser},
		Password:   "test12345",
		Enabled:    true,
	}); err != nil {
		t.Fatalf("create after deactivation: %s", err)
	}
}

func Test_UpdateKeepsEmail(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	usr := seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	newFirst := "Jim"
	newDept := "Security"
	updated, err := b.Update(ctx, usr, bus.UpdateUser{
		FirstName:  &newFirst,
		Department: &newDept,
		Roles:      []bus.Role{bus.RoleManager},
	})
	if err != nil {
		t.Fatalf("update: %s", err)
	}

	if updated.FirstName != "Jim" || updated.Department != "Security" {
		t.Fatalf("update did not apply: %+v", updated)
	}

	if updated.Email.Address != usr.Email.Address {
		t.Fatal("email must not change on update")
	}

	if updated.FullName() != "Jim Wilson" {
		t.Fatalf("fullName = %q, want %q", updated.FullName(), "Jim Wilson")
	}
}

func Test_DeactivateAndToggle(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	usr := seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	gone, err := b.Deactivate(ctx, usr)
	if err != nil {
		t.Fatalf("deactivate: %s", err)
	}
	if gone.Enabled {
		t.Fatal("deactivated user still enabled")
	}

	// the record survives deletion
	fetched, err := b.QueryByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("queryByID after deactivate: %s", err)
	}
	if fetched.Enabled {
		t.Fatal("stored user still enabled")
	}

	back, err := b.ToggleEnabled(ctx, fetched)
	if err != nil {
		t.Fatalf("toggleEnabled: %s", err)
	}
	if !back.Enabled {
		t.Fatal("toggle did not re-enable the user")
	}
}

func Test_QueryFiltersAndPaging(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})
	seedUser(t, b, "Maria", "Lopez", "maria.lopez@fixdesk.io", "Plumbing", "EMP-002", []bus.Role{bus.RoleTechnician})
	seedUser(t, b, "Tom", "Wilson", "tom.wilson@fixdesk.io", "Security", "EMP-003", []bus.Role{bus.RoleUser})

	term := "wilson"
	filter := bus.QueryFilter{SearchTerm: &term}

	users, err := b.Query(ctx, filter, bus.DefaultOrderBy, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("query: %s", err)
	}

	if len(users) != 2 {
		t.Fatalf("matched %d users, want 2", len(users))
	}

	total, err := b.Count(ctx, filter)
	if err != nil {
		t.Fatalf("count: %s", err)
	}
	if total != 2 {
		t.Fatalf("count = %d, want 2", total)
	}

	// one row per page partitions the match set
	pageOne, err := b.Query(ctx, filter, bus.DefaultOrderBy, page.Page{Number: 1, Rows: 1})
	if err != nil {
		t.Fatalf("query page 1: %s", err)
	}
	pageTwo, err := b.Query(ctx, filter, bus.DefaultOrderBy, page.Page{Number: 2, Rows: 1})
	if err != nil {
		t.Fatalf("query page 2: %s", err)
	}
	if len(pageOne) != 1 || len(pageTwo) != 1 || pageOne[0].ID == pageTwo[0].ID {
		t.Fatal("pages must split the matched set without overlap")
	}
}

func Test_QueryAllSearchesDepartment(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	seedUser(t, b, "Maria", "Lopez", "maria.lopez@fixdesk.io", "Plumbing", "EMP-002", []bus.Role{bus.RoleTechnician})
	seedUser(t, b, "Priya", "Nair", "priya.nair@fixdesk.io", "HVAC", "EMP-004", []bus.Role{bus.RoleManager})

	term := "plumbing"
	filter := bus.QueryFilter{SearchTerm: &term}

	// the paginated listing does not search departments
	users, err := b.Query(ctx, filter, bus.DefaultOrderBy, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("query: %s", err)
	}
	if len(users) != 0 {
		t.Fatalf("paginated query matched %d users, want 0", len(users))
	}

	// the full listing does
	all, err := b.QueryAll(ctx, filter)
	if err != nil {
		t.Fatalf("queryAll: %s", err)
	}
	if len(all) != 1 || all[0].Department != "Plumbing" {
		t.Fatalf("queryAll matched %d users, want the one in Plumbing", len(all))
	}
}

func Test_Authenticate(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	usr := seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	meta := bus.LoginMeta{IPAddress: "10.0.0.7", UserAgent: "go-test"}

	authed, err := b.Authenticate(ctx, usr.Email, "test12345", meta)
	if err != nil {
		t.Fatalf("authenticate: %s", err)
	}
	if authed.LastLoginAt == nil {
		t.Fatal("lastLoginAt not set on successful login")
	}

	if _, err := b.Authenticate(ctx, usr.Email, "wrongpass", meta); !errors.Is(err, bus.ErrAuthFailure) {
		t.Fatalf("err = %v, want ErrAuthFailure", err)
	}

	if _, err := b.Authenticate(ctx, mail.Address{Address: "ghost@fixdesk.io"}, "test12345", meta); !errors.Is(err, bus.ErrAuthFailure) {
		t.Fatalf("err = %v, want ErrAuthFailure for unknown email", err)
	}

	// both attempts for the real user are in the history
	records, total, err := b.LoginHistory(ctx, usr.ID, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("loginHistory: %s", err)
	}
	if total != 2 {
		t.Fatalf("login history has %d entries, want 2", total)
	}

	var successes, failures int
	for _, lr := range records {
		if lr.Success {
			successes++
		} else {
			failures++
		}
		if lr.IPAddress != "10.0.0.7" || lr.UserAgent != "go-test" {
			t.Fatalf("login meta not recorded: %+v", lr)
		}
	}
	if successes != 1 || failures != 1 {
		t.Fatalf("got %d successes and %d failures, want 1 and 1", successes, failures)
	}
}

func Test_CompletionRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		completed int
		assigned  int
		want      float64
	}{
		{40, 45, 88.9},
		{0, 0, 0},
		{5, 0, 0},
		{45, 45, 100},
		{1, 3, 33.3},
	}

	for _, tt := range tests {
		if got := bus.CompletionRate(tt.completed, tt.assigned); got != tt.want {
			t.Fatalf("CompletionRate(%d, %d) = %v, want %v", tt.completed, tt.assigned, got, tt.want)
		}
	}
}

func Test_StatsAndUnread(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	usr := seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})

	if err := b.AdjustUnread(ctx, usr.ID, 3); err != nil {
		t.Fatalf("adjustUnread: %s", err)
	}
	if err := b.AdjustUnread(ctx, usr.ID, -1); err != nil {
		t.Fatalf("adjustUnread: %s", err)
	}

	stats, err := b.Stats(ctx, usr.ID)
	if err != nil {
		t.Fatalf("stats: %s", err)
	}

	if stats.UnreadMessages != 2 {
		t.Fatalf("unreadMessages = %d, want 2", stats.UnreadMessages)
	}
	if stats.CompletionRate != 0 {
		t.Fatalf("completionRate = %v, want 0 with no assigned tickets", stats.CompletionRate)
	}

	// the counter never goes below zero
	if err := b.AdjustUnread(ctx, usr.ID, -10); err != nil {
		t.Fatalf("adjustUnread: %s", err)
	}
	after, err := b.QueryByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if after.UnreadMessages != 0 {
		t.Fatalf("unreadMessages = %d, want 0", after.UnreadMessages)
	}
}

func Test_SystemCounts(t *testing.T) {
	t.Parallel()

	b := newBus()
	ctx := context.Background()

	seedUser(t, b, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001", []bus.Role{bus.RoleAdmin})
	seedUser(t, b, "Maria", "Lopez", "maria.lopez@fixdesk.io", "Plumbing", "EMP-002", []bus.Role{bus.RoleTechnician})
	third := seedUser(t, b, "Tom", "Wilson", "tom.wilson@fixdesk.io", "IT", "EMP-003", []bus.Role{bus.RoleUser})

	if _, err := b.Deactivate(ctx, third); err != nil {
		t.Fatalf("deactivate: %s", err)
	}

	counts, err := b.SystemCounts(ctx)
	if err != nil {
		t.Fatalf("systemCounts: %s", err)
	}

	want := bus.SystemCounts{
		TotalUsers:    3,
		ActiveUsers:   2,
		InactiveUsers: 1,
		ByDepartment:  map[string]int{"IT": 2, "Plumbing": 1},
	}

	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("systemCounts: %s", diff)
	}
}
