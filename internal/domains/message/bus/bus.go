// Package bus implements the business rules of the admin messaging domain.
package bus

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	userbus "github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
)

var (
	ErrMessageNotFound   = errors.New("message not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrNotRecipient      = errors.New("only the recipient can mark a message read")
	ErrSubjectInvalid    = fmt.Errorf("subject is required and must be at most %d characters", MaxSubjectLen)
	ErrBodyInvalid       = fmt.Errorf("message body is required and must be at most %d characters", MaxBodyLen)
)

const (
	MaxSubjectLen = 200
	MaxBodyLen    = 2000
)

type store interface {
	Create(ctx context.Context, msg Message) error
	QueryByID(ctx context.Context, msgID uuid.UUID) (Message, error)
	Update(ctx context.Context, msg Message) error
	Inbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, page page.Page) ([]Message, int, error)
	Sent(ctx context.Context, userID uuid.UUID, page page.Page) ([]Message, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Totals(ctx context.Context) (Totals, error)
}

// userBus is the slice of the user domain messaging depends on.
type userBus interface {
	QueryByID(ctx context.Context, id uuid.UUID) (userbus.User, error)
	AdjustUnread(ctx context.Context, userID uuid.UUID, delta int) error
}

type Bus struct {
	store store
	users userBus
}

func New(store store, users userBus) *Bus {
	return &Bus{
		store: store,
		users: users,
	}
}

// Send delivers a message from the given user and bumps the recipient's
// unread counter.
func (b *Bus) Send(ctx context.Context, from userbus.User, nm NewMessage) (Message, error) {
	if nm.Subject == "" || utf8.RuneCountInString(nm.Subject) > MaxSubjectLen {
		return Message{}, ErrSubjectInvalid
	}

	if nm.Body == "" || utf8.RuneCountInString(nm.Body) > MaxBodyLen {
		return Message{}, ErrBodyInvalid
	}

	recipient, err := b.users.QueryByID(ctx, nm.ToUserID)
	if err != nil {
		if errors.Is(err, userbus.ErrUserNotFound) {
			return Message{}, ErrRecipientNotFound
		}
		return Message{}, fmt.Errorf("queryByID: %w", err)
	}

	msg := Message{
		ID:           uuid.New(),
		FromUserID:   from.ID,
		FromUserName: from.FullName(),
		ToUserID:     recipient.ID,
		ToUserName:   recipient.FullName(),
		Subject:      nm.Subject,
		Body:         nm.Body,
		Type:         nm.Type,
		CreatedAt:    time.Now().Truncate(time.Microsecond),
	}

	if err := b.store.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("create: %w", err)
	}

	if err := b.users.AdjustUnread(ctx, recipient.ID, 1); err != nil {
		return Message{}, fmt.Errorf("adjustUnread: %w", err)
	}

	return msg, nil
}

func (b *Bus) QueryByID(ctx context.Context, msgID uuid.UUID) (Message, error) {
	msg, err := b.store.QueryByID(ctx, msgID)
	if err != nil {
		return Message{}, fmt.Errorf("queryByID: %w", err)
	}

	return msg, nil
}

// MarkRead transitions a message from unread to read. The transition is
// one-way and idempotent, marking an already read message changes nothing.
func (b *Bus) MarkRead(ctx context.Context, msg Message, readerID uuid.UUID) (Message, error) {
	if msg.ToUserID != readerID {
		return Message{}, ErrNotRecipient
	}

	if msg.Read {
		return msg, nil
	}

	now := time.Now().Truncate(time.Microsecond)
	msg.Read = true
	msg.ReadAt = &now

	if err := b.store.Update(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("update: %w", err)
	}

	if err := b.users.AdjustUnread(ctx, msg.ToUserID, -1); err != nil {
		return Message{}, fmt.Errorf("adjustUnread: %w", err)
	}

	return msg, nil
}

func (b *Bus) Inbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, page page.Page) ([]Message, int, error) {
	msgs, total, err := b.store.Inbox(ctx, userID, unreadOnly, page)
	if err != nil {
		return nil, 0, fmt.Errorf("inbox: %w", err)
	}

	return msgs, total, nil
}

func (b *Bus) Sent(ctx context.Context, userID uuid.UUID, page page.Page) ([]Message, int, error) {
	msgs, total, err := b.store.Sent(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("sent: %w", err)
	}

	return msgs, total, nil
}

func (b *Bus) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := b.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("unreadCount: %w", err)
	}

	return count, nil
}

func (b *Bus) Totals(ctx context.Context) (Totals, error) {
	totals, err := b.store.Totals(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("totals: %w", err)
	}

	return totals, nil
}
