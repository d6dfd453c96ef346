// Package messagedb implements the message store against postgres.
package messagedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

type Store struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

func NewStore(db *sqlx.DB, tracer trace.Tracer) *Store {
	return &Store{
		db:     db,
		tracer: tracer,
	}
}

func (s *Store) Create(ctx context.Context, msg bus.Message) error {
	const q = `
	INSERT INTO admin_messages
		(id, from_user_id, from_user_name, to_user_id, to_user_name,
		 subject, body, message_type, is_read, read_at, created_at)
	VALUES
		(:id, :from_user_id, :from_user_name, :to_user_id, :to_user_name,
		 :subject, :body, :message_type, :is_read, :read_at, :created_at)
	`

	ctx, span := s.tracer.Start(ctx, "message.store.create")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusMessage(msg)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	return nil
}

func (s *Store) QueryByID(ctx context.Context, msgID uuid.UUID) (bus.Message, error) {
	const q = `
	SELECT * FROM admin_messages WHERE id = :id
	`

	data := map[string]any{"id": msgID.String()}

	ctx, span := s.tracer.Start(ctx, "message.store.queryByID")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return bus.Message{}, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return bus.Message{}, bus.ErrMessageNotFound
	}

	var msg message
	if err := rows.StructScan(&msg); err != nil {
		return bus.Message{}, fmt.Errorf("structScan: %w", err)
	}

	return toBusMessage(msg)
}

func (s *Store) Update(ctx context.Context, msg bus.Message) error {
	const q = `
	UPDATE admin_messages
	SET
		is_read = :is_read,
		read_at = :read_at
	WHERE id = :id
	`

	ctx, span := s.tracer.Start(ctx, "message.store.update")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusMessage(msg)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	return nil
}

func (s *Store) Inbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, pg page.Page) ([]bus.Message, int, error) {
	q := `
	SELECT * FROM admin_messages
	WHERE to_user_id = :user_id
	`
	countQ := `
	SELECT COUNT(1) AS count FROM admin_messages
	WHERE to_user_id = :user_id
	`

	if unreadOnly {
		q += " AND NOT is_read"
		countQ += " AND NOT is_read"
	}

	q += `
	ORDER BY created_at DESC
	OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY
	`

	ctx, span := s.tracer.Start(ctx, "message.store.inbox")
	defer span.End()

	return s.queryPage(ctx, q, countQ, userID, pg)
}

func (s *Store) Sent(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.Message, int, error) {
	const q = `
	SELECT * FROM admin_messages
	WHERE from_user_id = :user_id
	ORDER BY created_at DESC
	OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY
	`
	const countQ = `
	SELECT COUNT(1) AS count FROM admin_messages
	WHERE from_user_id = :user_id
	`

	ctx, span := s.tracer.Start(ctx, "message.store.sent")
	defer span.End()

	return s.queryPage(ctx, q, countQ, userID, pg)
}

func (s *Store) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const q = `
	SELECT COUNT(1) AS count FROM admin_messages
	WHERE to_user_id = :user_id AND NOT is_read
	`

	ctx, span := s.tracer.Start(ctx, "message.store.unreadCount")
	defer span.End()

	return s.count(ctx, q, map[string]any{"user_id": userID.String()})
}

func (s *Store) Totals(ctx context.Context) (bus.Totals, error) {
	const q = `
	SELECT
		COUNT(1)                       AS total_messages,
		COUNT(1) FILTER (WHERE NOT is_read) AS unread_messages
	FROM admin_messages
	`

	ctx, span := s.tracer.Start(ctx, "message.store.totals")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, map[string]any{})
	if err != nil {
		return bus.Totals{}, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return bus.Totals{}, errors.New("totals returned no rows")
	}

	var totals struct {
		TotalMessages  int `db:"total_messages"`
		UnreadMessages int `db:"unread_messages"`
	}
	if err := rows.StructScan(&totals); err != nil {
		return bus.Totals{}, fmt.Errorf("structScan: %w", err)
	}

	return bus.Totals{
		TotalMessages:  totals.TotalMessages,
		UnreadMessages: totals.UnreadMessages,
	}, nil
}

func (s *Store) queryPage(ctx context.Context, q string, countQ string, userID uuid.UUID, pg page.Page) ([]bus.Message, int, error) {
	data := map[string]any{
		"user_id":       userID.String(),
		"offset":        pg.Offset(),
		"rows_per_page": pg.Rows,
	}

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return nil, 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	var msgs []bus.Message
	for rows.Next() {
		var msg message
		if err := rows.StructScan(&msg); err != nil {
			return nil, 0, fmt.Errorf("structScan: %w", err)
		}

		busMsg, err := toBusMessage(msg)
		if err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, busMsg)
	}

	total, err := s.count(ctx, countQ, map[string]any{"user_id": userID.String()})
	if err != nil {
		return nil, 0, err
	}

	return msgs, total, nil
}

func (s *Store) count(ctx context.Context, q string, data map[string]any) (int, error) {
	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, errors.New("count returned no rows")
	}

	var count struct {
		Count int `db:"count"`
	}
	if err := rows.StructScan(&count); err != nil {
		return 0, fmt.Errorf("structScan: %w", err)
	}

	return count.Count, nil
}
