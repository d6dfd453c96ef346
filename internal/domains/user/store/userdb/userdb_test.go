package userdb_test

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/facilops/fixdesk/internal/dbtest"
	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/userdb"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/facilops/fixdesk/pkg/docker"
	"github.com/facilops/fixdesk/pkg/telemetry"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var container docker.Container
var tracer trace.Tracer

func TestMain(m *testing.M) {
	var err error
	container, err = dbtest.CreateDBContainer()
	if err != nil {
		log.Fatalf("createDBContainer: %s", err)
	}

	defer docker.StopContainer(container.Name)

	cfg := telemetry.Config{
		ServiceName: "userdb_test",
		Host:        "",
	}

	_, cleanup, err := telemetry.Setup(cfg)
	if err != nil {
		log.Fatalf("telemetry setup: %s", err)
	}

	tracer = otel.Tracer("userdb_tests")

	defer cleanup(context.Background())

	os.Exit(m.Run())
}

func seedUser(t *testing.T, store *userdb.Store, first, last, email, dept, empID string) bus.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	usr := bus.User{
		ID:           uuid.New(),
		Email:        mail.Address{Address: email},
		FirstName:    first,
		LastName:     last,
		Department:   dept,
		EmployeeID:   empID,
		Roles:        []bus.Role{bus.RoleTechnician},
		PasswordHash: []byte("hash"),
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := store.Create(context.Background(), usr); err != nil {
		t.Fatalf("creating user %s: %s", email, err)
	}
	return usr
}

// timestamps survive the roundtrip truncated, compare them loosely
var cmpOpts = []cmp.Option{
	cmp.AllowUnexported(bus.Role{}),
	cmpopts.EquateApproxTime(time.Second),
}

func Test_CreateAndQuery(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "create_and_query")
	store := userdb.NewStore(db, tracer)
	ctx := context.Background()

	usr := seedUser(t, store, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001")

	fetched, err := store.QueryByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if diff := cmp.Diff(usr, fetched, cmpOpts...); diff != "" {
		t.Fatalf("fetched user differs (-want +got):\n%s", diff)
	}

	byEmail, err := store.QueryByEmail(ctx, usr.Email)
	if err != nil {
		t.Fatalf("queryByEmail: %s", err)
	}
	if byEmail.ID != usr.ID {
		t.Fatalf("queryByEmail returned %s, want %s", byEmail.ID, usr.ID)
	}

	if _, err := store.QueryByID(ctx, uuid.New()); !errors.Is(err, bus.ErrUserNotFound) {
		t.Fatalf("unknown id: got %v, want ErrUserNotFound", err)
	}
}

func Test_UniqueConstraints(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "unique_constraints")
	store := userdb.NewStore(db, tracer)
	ctx := context.Background()

	first := seedUser(t, store, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001")

	dup := first
	dup.ID = uuid.New()
	dup.EmployeeID = "EMP-002"
	if err := store.Create(ctx, dup); !errors.Is(err, bus.ErrDuplicatedEmail) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicatedEmail", err)
	}

	dup = first
	dup.ID = uuid.New()
	dup.Email = mail.Address{Address: "other@fixdesk.io"}
	if err := store.Create(ctx, dup); !errors.Is(err, bus.ErrDuplicatedEmployeeID) {
		t.Fatalf("duplicate employee id: got %v, want ErrDuplicatedEmployeeID", err)
	}

	// the employee id is only reserved while the holder is active
	first.Enabled = false
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("deactivating: %s", err)
	}
	if err := store.Create(ctx, dup); err != nil {
		t.Fatalf("reusing a freed employee id: %s", err)
	}
}

func Test_QueryFilterAndCount(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "query_filter")
	store := userdb.NewStore(db, tracer)
	ctx := context.Background()

	seedUser(t, store, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001")
	seedUser(t, store, "Maria", "Lopez", "maria.lopez@fixdesk.io", "Plumbing", "EMP-002")
	seedUser(t, store, "Tom", "Wilson", "tom.wilson@fixdesk.io", "Security", "EMP-003")

	search := "wilson"
	filter := bus.QueryFilter{SearchTerm: &search}
	pg := page.Page{Number: 1, Rows: 10}

	users, err := store.Query(ctx, filter, bus.DefaultOrderBy, pg)
	if err != nil {
		t.Fatalf("query: %s", err)
	}
	if len(users) != 2 {
		t.Fatalf("search matched %d users, want 2", len(users))
	}

	total, err := store.Count(ctx, filter)
	if err != nil {
		t.Fatalf("count: %s", err)
	}
	if total != 2 {
		t.Fatalf("count = %d, want 2", total)
	}

	dept := "Plumbing"
	users, err = store.Query(ctx, bus.QueryFilter{Department: &dept}, bus.DefaultOrderBy, pg)
	if err != nil {
		t.Fatalf("query by department: %s", err)
	}
	if len(users) != 1 || users[0].EmployeeID != "EMP-002" {
		t.Fatalf("department filter returned %+v", users)
	}

	// pagination partitions the matched set
	one := page.Page{Number: 2, Rows: 1}
	users, err = store.Query(ctx, filter, bus.DefaultOrderBy, one)
	if err != nil {
		t.Fatalf("query page 2: %s", err)
	}
	if len(users) != 1 {
		t.Fatalf("page 2 has %d users, want 1", len(users))
	}

	// the unpaginated listing searches the department too
	deptSearch := "plumbing"
	all, err := store.QueryAll(ctx, bus.QueryFilter{SearchTerm: &deptSearch, SearchDepartment: true})
	if err != nil {
		t.Fatalf("queryAll: %s", err)
	}
	if len(all) != 1 || all[0].EmployeeID != "EMP-002" {
		t.Fatalf("department search returned %+v", all)
	}
}

func Test_LoginHistoryAndActivity(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "login_activity")
	store := userdb.NewStore(db, tracer)
	ctx := context.Background()

	usr := seedUser(t, store, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001")

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, ok := range []bool{true, false} {
		lr := bus.LoginRecord{
			ID:        uuid.New(),
			UserID:    usr.ID,
			LoggedAt:  base.Add(time.Duration(i) * time.Minute),
			IPAddress: "10.0.0.7",
			UserAgent: "go-test",
			Success:   ok,
		}
		if err := store.InsertLogin(ctx, lr); err != nil {
			t.Fatalf("insertLogin: %s", err)
		}
	}

	logins, total, err := store.QueryLogins(ctx, usr.ID, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("queryLogins: %s", err)
	}
	if total != 2 || len(logins) != 2 {
		t.Fatalf("login history has %d of %d, want 2 of 2", len(logins), total)
	}
	// newest first
	if logins[0].Success {
		t.Fatalf("expected the failed, most recent login first: %+v", logins)
	}

	ar := bus.ActivityRecord{
		ID:      uuid.New(),
		UserID:  usr.ID,
		ActedAt: base,
		Action:  "user.updated",
		Detail:  "department changed",
	}
	if err := store.InsertActivity(ctx, ar); err != nil {
		t.Fatalf("insertActivity: %s", err)
	}

	activity, total, err := store.QueryActivity(ctx, usr.ID, page.Page{Number: 1, Rows: 10})
	if err != nil {
		t.Fatalf("queryActivity: %s", err)
	}
	if total != 1 || activity[0].Action != "user.updated" {
		t.Fatalf("activity log wrong: %+v", activity)
	}
}

func Test_SystemCountsAndUnread(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "system_counts")
	store := userdb.NewStore(db, tracer)
	ctx := context.Background()

	usr := seedUser(t, store, "James", "Wilson", "james.wilson@fixdesk.io", "IT", "EMP-001")
	seedUser(t, store, "Maria", "Lopez", "maria.lopez@fixdesk.io", "Plumbing", "EMP-002")

	inactive := seedUser(t, store, "Derek", "Stone", "derek.stone@fixdesk.io", "IT", "EMP-003")
	inactive.Enabled = false
	if err := store.Update(ctx, inactive); err != nil {
		t.Fatalf("deactivating: %s", err)
	}

	counts, err := store.SystemCounts(ctx)
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
		t.Fatalf("system counts differ (-want +got):\n%s", diff)
	}

	if err := store.AdjustUnread(ctx, usr.ID, 3); err != nil {
		t.Fatalf("adjustUnread +3: %s", err)
	}
	if err := store.AdjustUnread(ctx, usr.ID, -5); err != nil {
		t.Fatalf("adjustUnread -5: %s", err)
	}

	fetched, err := store.QueryByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if fetched.UnreadMessages != 0 {
		t.Fatalf("unread = %d, the counter must clamp at zero", fetched.UnreadMessages)
	}
}
