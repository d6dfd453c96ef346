// Package userdb implements the user store against postgres.
package userdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/order"
	"github.com/facilops/fixdesk/internal/page"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = "23505"

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

func (s *Store) Create(ctx context.Context, usr bus.User) error {
	const q = `
	INSERT INTO admin_users
		(id, email, first_name, last_name, department, employee_id, roles, password_hash, enabled,
		 tickets_created, tickets_assigned, tickets_completed, unread_messages,
		 last_login_at, last_activity_at, created_at, updated_at)
	VALUES
		(:id, :email, :first_name, :last_name, :department, :employee_id, :roles, :password_hash, :enabled,
		 :tickets_created, :tickets_assigned, :tickets_completed, :unread_messages,
		 :last_login_at, :last_activity_at, :created_at, :updated_at)
	`

	ctx, span := s.tracer.Start(ctx, "user.store.create")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusUser(usr)); err != nil {
		return uniqueErr(err)
	}

	return nil
}

func (s *Store) Update(ctx context.Context, usr bus.User) error {
	const q = `
	UPDATE admin_users
	SET
		first_name = :first_name,
		last_name = :last_name,
		department = :department,
		employee_id = :employee_id,
		roles = :roles,
		password_hash = :password_hash,
		enabled = :enabled,
		last_login_at = :last_login_at,
		updated_at = :updated_at
	WHERE
		id = :id;
	`

	ctx, span := s.tracer.Start(ctx, "user.store.update")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusUser(usr)); err != nil {
		return uniqueErr(err)
	}

	return nil
}

func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (bus.User, error) {
	data := map[string]any{
		"id": userID.String(),
	}

	const q = `SELECT * FROM admin_users WHERE id = :id`

	ctx, span := s.tracer.Start(ctx, "user.store.queryByID")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return bus.User{}, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return bus.User{}, bus.ErrUserNotFound
	}

	var usr user
	if err := rows.StructScan(&usr); err != nil {
		return bus.User{}, fmt.Errorf("structScan: %w", err)
	}

	return toBusUser(usr), nil
}

func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (bus.User, error) {
	data := struct {
		Email string `db:"email"`
	}{
		Email: email.Address,
	}

	const q = `SELECT * FROM admin_users WHERE email = :email;`

	ctx, span := s.tracer.Start(ctx, "user.store.queryByEmail")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return bus.User{}, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return bus.User{}, bus.ErrUserNotFound
	}

	var usr user
	if err := rows.StructScan(&usr); err != nil {
		return bus.User{}, fmt.Errorf("structScan: %w", err)
	}

	return toBusUser(usr), nil
}

func (s *Store) Query(ctx context.Context, filter bus.QueryFilter, orderBy order.Field, pg page.Page) ([]bus.User, error) {
	data := map[string]any{
		"offset":        pg.Offset(),
		"rows_per_page": pg.Rows,
	}

	buf := bytes.NewBufferString("SELECT * FROM admin_users")

	applyFilters(filter, data, buf)

	orderClause, err := orderByClause(orderBy)
	if err != nil {
		return nil, fmt.Errorf("orderByClause: %w", err)
	}
	buf.WriteString(orderClause)

	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY;")

	ctx, span := s.tracer.Start(ctx, "user.store.query")
	defer span.End()

	return s.queryUsers(ctx, buf.String(), data)
}

func (s *Store) QueryAll(ctx context.Context, filter bus.QueryFilter) ([]bus.User, error) {
	data := map[string]any{}

	buf := bytes.NewBufferString("SELECT * FROM admin_users")

	applyFilters(filter, data, buf)

	//insertion order, same as the paged listing's default
	buf.WriteString(" ORDER BY created_at ASC;")

	ctx, span := s.tracer.Start(ctx, "user.store.queryAll")
	defer span.End()

	return s.queryUsers(ctx, buf.String(), data)
}

func (s *Store) Count(ctx context.Context, filter bus.QueryFilter) (int, error) {
	buf := bytes.NewBufferString("SELECT COUNT(1) AS count FROM admin_users")

	data := map[string]any{}
	applyFilters(filter, data, buf)

	ctx, span := s.tracer.Start(ctx, "user.store.count")
	defer span.End()

	var count struct {
		Count int `db:"count"`
	}

	rows, err := s.db.NamedQueryContext(ctx, buf.String(), data)
	if err != nil {
		return 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, errors.New("count returned no rows")
	}

	if err := rows.StructScan(&count); err != nil {
		return 0, fmt.Errorf("structScan: %w", err)
	}

	return count.Count, nil
}

func (s *Store) InsertLogin(ctx context.Context, lr bus.LoginRecord) error {
	const q = `
	INSERT INTO login_history (id, user_id, logged_at, ip_address, user_agent, success)
	VALUES (:id, :user_id, :logged_at, :ip_address, :user_agent, :success)
	`

	ctx, span := s.tracer.Start(ctx, "user.store.insertLogin")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, fromBusLogin(lr)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	return nil
}

func (s *Store) QueryLogins(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.LoginRecord, int, error) {
	data := map[string]any{
		"user_id":       userID.String(),
		"offset":        pg.Offset(),
		"rows_per_page": pg.Rows,
	}

	const q = `
	SELECT * FROM login_history
	WHERE user_id = :user_id
	ORDER BY logged_at DESC
	OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY;
	`

	ctx, span := s.tracer.Start(ctx, "user.store.queryLogins")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return nil, 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	var records []bus.LoginRecord
	for rows.Next() {
		var lr loginRecord
		if err := rows.StructScan(&lr); err != nil {
			return nil, 0, fmt.Errorf("structScan: %w", err)
		}
		records = append(records, toBusLogin(lr))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("preparing next row to scan: %w", err)
	}

	total, err := s.countRows(ctx, "login_history", userID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s *Store) InsertActivity(ctx context.Context, ar bus.ActivityRecord) error {
	ctx, span := s.tracer.Start(ctx, "user.store.insertActivity")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginTxx: %w", err)
	}
	defer tx.Rollback()

	const q = `
	INSERT INTO activity_log (id, user_id, acted_at, action, detail)
	VALUES (:id, :user_id, :acted_at, :action, :detail)
	`

	if _, err := tx.NamedExecContext(ctx, q, fromBusActivity(ar)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	//the activity log drives the lastActivityAt attribute of the record.
	const bump = `UPDATE admin_users SET last_activity_at = :acted_at WHERE id = :user_id`
	if _, err := tx.NamedExecContext(ctx, bump, fromBusActivity(ar)); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) QueryActivity(ctx context.Context, userID uuid.UUID, pg page.Page) ([]bus.ActivityRecord, int, error) {
	data := map[string]any{
		"user_id":       userID.String(),
		"offset":        pg.Offset(),
		"rows_per_page": pg.Rows,
	}

	const q = `
	SELECT * FROM activity_log
	WHERE user_id = :user_id
	ORDER BY acted_at DESC
	OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY;
	`

	ctx, span := s.tracer.Start(ctx, "user.store.queryActivity")
	defer span.End()

	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return nil, 0, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	var records []bus.ActivityRecord
	for rows.Next() {
		var ar activityRecord
		if err := rows.StructScan(&ar); err != nil {
			return nil, 0, fmt.Errorf("structScan: %w", err)
		}
		records = append(records, toBusActivity(ar))
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("preparing next row to scan: %w", err)
	}

	total, err := s.countRows(ctx, "activity_log", userID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (s *Store) SystemCounts(ctx context.Context) (bus.SystemCounts, error) {
	ctx, span := s.tracer.Start(ctx, "user.store.systemCounts")
	defer span.End()

	const q = `
	SELECT
		COUNT(1) AS total,
		COUNT(1) FILTER (WHERE enabled) AS active,
		COUNT(1) FILTER (WHERE NOT enabled) AS inactive
	FROM admin_users;
	`

	var totals struct {
		Total    int `db:"total"`
		Active   int `db:"active"`
		Inactive int `db:"inactive"`
	}

	if err := s.db.GetContext(ctx, &totals, q); err != nil {
		return bus.SystemCounts{}, fmt.Errorf("getContext: %w", err)
	}

	const byDept = `
	SELECT department, COUNT(1) AS count
	FROM admin_users
	WHERE department IS NOT NULL
	GROUP BY department;
	`

	rows, err := s.db.QueryxContext(ctx, byDept)
	if err != nil {
		return bus.SystemCounts{}, fmt.Errorf("queryxContext: %w", err)
	}
	defer rows.Close()

	counts := bus.SystemCounts{
		TotalUsers:    totals.Total,
		ActiveUsers:   totals.Active,
		InactiveUsers: totals.Inactive,
		ByDepartment:  make(map[string]int),
	}

	for rows.Next() {
		var dept struct {
			Department string `db:"department"`
			Count      int    `db:"count"`
		}
		if err := rows.StructScan(&dept); err != nil {
			return bus.SystemCounts{}, fmt.Errorf("structScan: %w", err)
		}
		counts.ByDepartment[dept.Department] = dept.Count
	}

	if err := rows.Err(); err != nil {
		return bus.SystemCounts{}, fmt.Errorf("preparing next row to scan: %w", err)
	}

	return counts, nil
}

func (s *Store) AdjustUnread(ctx context.Context, userID uuid.UUID, delta int) error {
	data := map[string]any{
		"id":    userID.String(),
		"delta": delta,
	}

	const q = `UPDATE admin_users SET unread_messages = GREATEST(0, unread_messages + :delta) WHERE id = :id`

	ctx, span := s.tracer.Start(ctx, "user.store.adjustUnread")
	defer span.End()

	if _, err := s.db.NamedExecContext(ctx, q, data); err != nil {
		return fmt.Errorf("namedExecContext: %w", err)
	}

	return nil
}

//==============================================================================

func (s *Store) queryUsers(ctx context.Context, q string, data map[string]any) ([]bus.User, error) {
	rows, err := s.db.NamedQueryContext(ctx, q, data)
	if err != nil {
		return nil, fmt.Errorf("namedQueryContext: %w", err)
	}
	defer rows.Close()

	var usrs []user
	for rows.Next() {
		var usr user
		if err := rows.StructScan(&usr); err != nil {
			return nil, fmt.Errorf("structScan: %w", err)
		}
		usrs = append(usrs, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("preparing next row to scan: %w", err)
	}

	busUsers := make([]bus.User, len(usrs))
	for i, usr := range usrs {
		busUsers[i] = toBusUser(usr)
	}

	return busUsers, nil
}

func (s *Store) countRows(ctx context.Context, table string, userID uuid.UUID) (int, error) {
	//table is one of our own literals, never caller input
	q := "SELECT COUNT(1) FROM " + table + " WHERE user_id = $1"

	var count int
	if err := s.db.GetContext(ctx, &count, q, userID.String()); err != nil {
		return 0, fmt.Errorf("getContext: %w", err)
	}

	return count, nil
}

// uniqueErr maps postgres unique violations onto the domain errors using
// the constraint name.
func uniqueErr(err error) error {
	var pgerror *pgconn.PgError
	if errors.As(err, &pgerror) && pgerror.Code == uniqueViolation {
		if strings.Contains(pgerror.ConstraintName, "employee") {
			return bus.ErrDuplicatedEmployeeID
		}
		return bus.ErrDuplicatedEmail
	}

	return fmt.Errorf("namedExecContext: %w", err)
}
