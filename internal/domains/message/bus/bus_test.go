package bus_test

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"testing"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/domains/message/store/messagemem"
	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/usermem"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
)

func newBuses(t *testing.T) (*bus.Bus, *userbus.Bus, userbus.User, userbus.User) {
	t.Helper()

	users := userbus.New(usermem.NewStore())
	messages := bus.New(messagemem.NewStore(), users)

	ctx := context.Background()

	sender, err := users.Create(ctx, userbus.NewUser{
		Email:      mail.Address{Address: "james.wilson@fixdesk.io"},
		FirstName:  "James",
		LastName:   "Wilson",
		EmployeeID: "EMP-001",
		Roles:      []userbus.Role{userbus.RoleAdmin},
		Password:   "test12345",
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("creating sender: %s", err)
	}

	recipient, err := users.Create(ctx, userbus.NewUser{
		Email:      mail.Address{Address: "maria.lopez@fixdesk.io"},
		FirstName:  "Maria",
		LastName:   "Lopez",
		EmployeeID: "EMP-002",
		Roles:      []userbus.Role{userbus.RoleTechnician},
		Password:   "test12345",
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("creating recipient: %s", err)
	}

	return messages, users, sender, recipient
}

func Test_SendMessage(t *testing.T) {
	t.Parallel()

	messages, users, sender, recipient := newBuses(t)
	ctx := context.Background()

	msg, err := messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: recipient.ID,
		Subject:  "Boiler inspection",
		Body:     "Unit 4B reports no hot water, please check today.",
		Type:     bus.MessageTypeTask,
	})
	if err != nil {
		t.Fatalf("send: %s", err)
	}

	// names are captured at send time
	if msg.FromUserName != "James Wilson" || msg.ToUserName != "Maria Lopez" {
		t.Fatalf("names not denormalized: %+v", msg)
	}

	if msg.Read || msg.ReadAt != nil {
		t.Fatal("a fresh message must be unread")
	}

	// delivery bumps the recipient's unread counter
	fetched, err := users.QueryByID(ctx, recipient.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if fetched.UnreadMessages != 1 {
		t.Fatalf("recipient unreadMessages = %d, want 1", fetched.UnreadMessages)
	}
}

func Test_SendValidation(t *testing.T) {
	t.Parallel()

	messages, _, sender, recipient := newBuses(t)
	ctx := context.Background()

	_, err := messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: recipient.ID,
		Subject:  "",
		Body:     "body",
		Type:     bus.MessageTypeGeneral,
	})
	if !errors.Is(err, bus.ErrSubjectInvalid) {
		t.Fatalf("err = %v, want ErrSubjectInvalid", err)
	}

	_, err = messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: recipient.ID,
		Subject:  strings.Repeat("s", bus.MaxSubjectLen+1),
		Body:     "body",
		Type:     bus.MessageTypeGeneral,
	})
	if !errors.Is(err, bus.ErrSubjectInvalid) {
		t.Fatalf("err = %v, want ErrSubjectInvalid for a long subject", err)
	}

	_, err = messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: recipient.ID,
		Subject:  "subject",
		Body:     strings.Repeat("b", bus.MaxBodyLen+1),
		Type:     bus.MessageTypeGeneral,
	})
	if !errors.Is(err, bus.ErrBodyInvalid) {
		t.Fatalf("err = %v, want ErrBodyInvalid", err)
	}

	_, err = messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: uuid.New(),
		Subject:  "subject",
		Body:     "body",
		Type:     bus.MessageTypeGeneral,
	})
	if !errors.Is(err, bus.ErrRecipientNotFound) {
		t.Fatalf("err = %v, want ErrRecipientNotFound", err)
	}
}

func Test_MarkRead(t *testing.T) {
	t.Parallel()

	messages, users, sender, recipient := newBuses(t)
	ctx := context.Background()

	msg, err := messages.Send(ctx, sender, bus.NewMessage{
		ToUserID: recipient.ID,
		Subject:  "Boiler inspection",
		Body:     "Unit 4B reports no hot water.",
		Type:     bus.MessageTypeTask,
	})
	if err != nil {
		t.Fatalf("send: %s", err)
	}

	// only the recipient can read it
	if _, err := messages.MarkRead(ctx, msg, sender.ID); !errors.Is(err, bus.ErrNotRecipient) {
		t.Fatalf("err = %v, want ErrNotRecipient", err)
	}

	read, err := messages.MarkRead(ctx, msg, recipient.ID)
	if err != nil {
		t.Fatalf("markRead: %s", err)
	}
	if !read.Read || read.ReadAt == nil {
		t.Fatalf("message not marked read: %+v", read)
	}

	fetched, err := users.QueryByID(ctx, recipient.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if fetched.UnreadMessages != 0 {
		t.Fatalf("recipient unreadMessages = %d, want 0", fetched.UnreadMessages)
	}

	// marking again is a no-op, the counter must not go negative or the
	// readAt change
	again, err := messages.MarkRead(ctx, read, recipient.ID)
	if err != nil {
		t.Fatalf("second markRead: %s", err)
	}
	if !again.ReadAt.Equal(*read.ReadAt) {
		t.Fatal("readAt changed on a repeated markRead")
	}

	fetched, err = users.QueryByID(ctx, recipient.ID)
	if err != nil {
		t.Fatalf("queryByID: %s", err)
	}
	if fetched.UnreadMessages != 0 {
		t.Fatalf("recipient unreadMessages = %d, want 0 after repeat", fetched.UnreadMessages)
	}
}

func Test_InboxSentAndCounts(t *testing.T) {
	t.Parallel()

	messages, _, sender, recipient := newBuses(t)
	ctx := context.Background()

	pg := page.Page{Number: 1, Rows: 10}

	subjects := []string{"first", "second", "third"}
	var sent []bus.Message
	for _, s := range subjects {
		msg, err := messages.Send(ctx, sender, bus.NewMessage{
			ToUserID: recipient.ID,
			Subject:  s,
			Body:     "body of " + s,
			Type:     bus.MessageTypeGeneral,
		})
		if err != nil {
			t.Fatalf("send %q: %s", s, err)
		}
		sent = append(sent, msg)
	}

	inbox, total, err := messages.Inbox(ctx, recipient.ID, false, pg)
	if err != nil {
		t.Fatalf("inbox: %s", err)
	}
	if total != 3 || len(inbox) != 3 {
		t.Fatalf("inbox has %d of %d messages, want 3 of 3", len(inbox), total)
	}

	outbox, total, err := messages.Sent(ctx, sender.ID, pg)
	if err != nil {
		t.Fatalf("sent: %s", err)
	}
	if total != 3 || len(outbox) != 3 {
		t.Fatalf("sent has %d of %d messages, want 3 of 3", len(outbox), total)
	}

	// reading one message shrinks the unread view but not the inbox
	if _, err := messages.MarkRead(ctx, sent[0], recipient.ID); err != nil {
		t.Fatalf("markRead: %s", err)
	}

	unread, total, err := messages.Inbox(ctx, recipient.ID, true, pg)
	if err != nil {
		t.Fatalf("inbox unreadOnly: %s", err)
	}
	if total != 2 || len(unread) != 2 {
		t.Fatalf("unread inbox has %d of %d messages, want 2 of 2", len(unread), total)
	}

	count, err := messages.UnreadCount(ctx, recipient.ID)
	if err != nil {
		t.Fatalf("unreadCount: %s", err)
	}
	if count != 2 {
		t.Fatalf("unreadCount = %d, want 2", count)
	}

	totals, err := messages.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %s", err)
	}
	if totals.TotalMessages != 3 || totals.UnreadMessages != 2 {
		t.Fatalf("totals = %+v, want 3 total and 2 unread", totals)
	}
}
