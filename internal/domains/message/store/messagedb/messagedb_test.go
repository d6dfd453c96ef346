package messagedb_test

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/facilops/fixdesk/internal/dbtest"
	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/domains/message/store/messagedb"
	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/userdb"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/facilops/fixdesk/pkg/docker"
	"github.com/facilops/fixdesk/pkg/telemetry"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
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
		ServiceName: "messagedb_test",
		Host:        "",
	}

	_, cleanup, err := telemetry.Setup(cfg)
	if err != nil {
		log.Fatalf("telemetry setup: %s", err)
	}

	tracer = otel.Tracer("messagedb_tests")

	defer cleanup(context.Background())

	os.Exit(m.Run())
}

// messages reference admin_users, so each test seeds a sender and a
// recipient first.
func seedUsers(t *testing.T, db *sqlx.DB) (sender uuid.UUID, recipient uuid.UUID) {
	t.Helper()

	users := userdb.NewStore(db, tracer)
	now := time.Now().UTC().Truncate(time.Microsecond)

	ids := make([]uuid.UUID, 2)
	for i, email := range []string{"james.wilson@fixdesk.io", "maria.lopez@fixdesk.io"} {
		ids[i] = uuid.New()
		usr := userbus.User{
			ID:           ids[i],
			Email:        mail.Address{Address: email},
			FirstName:    "User",
			LastName:     email,
			EmployeeID:   email,
			Roles:        []userbus.Role{userbus.RoleUser},
			PasswordHash: []byte("hash"),
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(context.Background(), usr); err != nil {
			t.Fatalf("seeding user %s: %s", email, err)
		}
	}

	return ids[0], ids[1]
}

func newMessage(from uuid.UUID, to uuid.UUID, subject string, at time.Time) bus.Message {
	return bus.Message{
		ID:           uuid.New(),
		FromUserID:   from,
		FromUserName: "James Wilson",
		ToUserID:     to,
		ToUserName:   "Maria Lopez",
		Subject:      subject,
		Body:         "Unit 4B reports no hot water.",
		Type:         bus.MessageTypeTask,
		CreatedAt:    at,
	}
}

func Test_CreateAndQueryMessage(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "message_create")
	store := messagedb.NewStore(db, tracer)
	ctx := context.Background()

	sender, recipient := seedUsers(t, db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	msg := newMessage(sender, recipient, "Boiler inspection", now)

	if err := store.Create(ctx, msg); err != nil {
		t.Fatalf("create: %s", err)
	}

	fetched, err := store.QueryByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if fetched.Subject != msg.Subject || fetched.FromUserName != "James Wilson" {
		t.Fatalf("fetched message differs: %+v", fetched)
	}
	if fetched.Read || fetched.ReadAt != nil {
		t.Fatal("a new message starts unread")
	}

	if _, err := store.QueryByID(ctx, uuid.New()); !errors.Is(err, bus.ErrMessageNotFound) {
		t.Fatalf("unknown id: got %v, want ErrMessageNotFound", err)
	}
}

func Test_MarkReadPersists(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "message_read")
	store := messagedb.NewStore(db, tracer)
	ctx := context.Background()

	sender, recipient := seedUsers(t, db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	msg := newMessage(sender, recipient, "Boiler inspection", now)
	if err := store.Create(ctx, msg); err != nil {
		t.Fatalf("create: %s", err)
	}

	readAt := now.Add(time.Minute)
	msg.Read = true
	msg.ReadAt = &readAt
	if err := store.Update(ctx, msg); err != nil {
		t.Fatalf("update: %s", err)
	}

	fetched, err := store.QueryByID(ctx, msg.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if !fetched.Read || fetched.ReadAt == nil {
		t.Fatalf("read state did not persist: %+v", fetched)
	}
}

func Test_InboxSentTotals(t *testing.T) {
	t.Parallel()

	db := dbtest.New(t, container, "message_boxes")
	store := messagedb.NewStore(db, tracer)
	ctx := context.Background()

	sender, recipient := seedUsers(t, db)

	base := time.Now().UTC().Truncate(time.Microsecond)
	msgs := make([]bus.Message, 3)
	for i, subject := range []string{"one", "two", "three"} {
		msgs[i] = newMessage(sender, recipient, subject, base.Add(time.Duration(i)*time.Minute))
		if err := store.Create(ctx, msgs[i]); err != nil {
			t.Fatalf("create %q: %s", subject, err)
		}
	}

	pg := page.Page{Number: 1, Rows: 10}

	inbox, total, err := store.Inbox(ctx, recipient, false, pg)
	if err != nil {
		t.Fatalf("inbox: %s", err)
	}
	if total != 3 || len(inbox) != 3 {
		t.Fatalf("inbox has %d of %d, want 3 of 3", len(inbox), total)
	}
	// newest first
	if inbox[0].Subject != "three" {
		t.Fatalf("inbox[0].Subject = %q, want %q", inbox[0].Subject, "three")
	}

	sent, total, err := store.Sent(ctx, sender, pg)
	if err != nil {
		t.Fatalf("sent: %s", err)
	}
	if total != 3 || len(sent) != 3 {
		t.Fatalf("sent box has %d of %d, want 3 of 3", len(sent), total)
	}

	// read one, the unread-only listing and the counters shrink
	readAt := base.Add(time.Hour)
	msgs[0].Read = true
	msgs[0].ReadAt = &readAt
	if err := store.Update(ctx, msgs[0]); err != nil {
		t.Fatalf("update: %s", err)
	}

	unread, total, err := store.Inbox(ctx, recipient, true, pg)
	if err != nil {
		t.Fatalf("unread inbox: %s", err)
	}
	if total != 2 || len(unread) != 2 {
		t.Fatalf("unread inbox has %d of %d, want 2 of 2", len(unread), total)
	}

	count, err := store.UnreadCount(ctx, recipient)
	if err != nil {
		t.Fatalf("unreadCount: %s", err)
	}
	if count != 2 {
		t.Fatalf("unreadCount = %d, want 2", count)
	}

	totals, err := store.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %s", err)
	}
	if totals.TotalMessages != 3 || totals.UnreadMessages != 2 {
		t.Fatalf("totals = %+v, want 3 total, 2 unread", totals)
	}

	// pagination
	pageTwo, total, err := store.Inbox(ctx, recipient, false, page.Page{Number: 2, Rows: 2})
	if err != nil {
		t.Fatalf("inbox page 2: %s", err)
	}
	if total != 3 || len(pageTwo) != 1 {
		t.Fatalf("page 2 has %d of %d, want 1 of 3", len(pageTwo), total)
	}
}
