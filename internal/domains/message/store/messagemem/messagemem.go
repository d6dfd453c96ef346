// Package messagemem is an in-memory message store for hermetic tests and
// demo seeding.
package messagemem

import (
	"context"
	"sort"
	"sync"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	messages []bus.Message
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Create(ctx context.Context, msg bus.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	return nil
}

func (s *Store) QueryByID(ctx context.Context, msgID uuid.UUID) (bus.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msg := range s.messages {
		if msg.ID == msgID {
			return msg, nil
		}
	}

	return bus.Message{}, bus.ErrMessageNotFound
}

func (s *Store) Update(ctx context.Context, msg bus.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.messages {
		if existing.ID == msg.ID {
			s.messages[i] = msg
			return nil
		}
	}

	return bus.ErrMessageNotFound
}

func (s *Store) Inbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, pg page.Page) ([]bus.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []bus.Message
	for _, msg := range s.messages {
		if msg.ToUserID != userID {
			continue
		}
		if unreadOnly && msg.Read {
			continue
		}
		matched = append(matched, msg)
	}

	sortNewestFirst(matched)

	return slicePage(matched, pg), len(matched), nil
}

func (s *Store) Sent(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []bus.Message
	for _, msg := range s.messages {
		if msg.FromUserID == userID {
			matched = append(matched, msg)
		}
	}

	sortNewestFirst(matched)

	return slicePage(matched, pg), len(matched), nil
}

func (s *Store) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, msg := range s.messages {
		if msg.ToUserID == userID && !msg.Read {
			count++
		}
	}

	return count, nil
}

func (s *Store) Totals(ctx context.Context) (bus.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := bus.Totals{TotalMessages: len(s.messages)}
	for _, msg := range s.messages {
		if !msg.Read {
			totals.UnreadMessages++
		}
	}

	return totals, nil
}

//==============================================================================

func sortNewestFirst(msgs []bus.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}

func slicePage(msgs []bus.Message, pg page.Page) []bus.Message {
	offset := pg.Offset()
	if offset >= len(msgs) {
		return []bus.Message{}
	}

	end := min(offset+pg.Rows, len(msgs))

	return msgs[offset:end]
}
