package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/bool64/sqluct"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"userapi/domain"
)

// Session is a single transaction against the users table. It is not safe
// for concurrent use.
type Session struct {
	tx     *sqlx.Tx
	sq     sq.StatementBuilderType
	sm     *sqluct.Mapper
	log    *slog.Logger
	tracer trace.Tracer
	driver string
	done   bool
}

func (s *Session) startSpan(ctx context.Context, op, qry string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", s.driver),
			attribute.String("db.statement", qry),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddUser inserts a new row and returns it with the id assigned by the database.
func (s *Session) AddUser(ctx context.Context, duser domain.User) (_ domain.User, err error) {
	const op = "storage.Session.AddUser"
	row := fromDomain(duser)
	qry, args, err := s.sq.Insert(usersTable).
		Columns("first_name", "last_name", "age").
		Values(row.FirstName, row.LastName, row.Age).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		s.log.Error(op+": failed to build query", "error", err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op, "qry", qry, "args", args)
	ctx, span := s.startSpan(ctx, op, qry)
	defer func() { endSpan(span, err) }()

	if err = s.tx.QueryRowxContext(ctx, qry, args...).Scan(&row.ID); err != nil {
		s.log.Error(op+": failed to insert user", "error", err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op+": successfully added new user", "id", row.ID)
	return toDomain(row), nil
}

// GetUser looks the user up by primary key.
func (s *Session) GetUser(ctx context.Context, id domain.UserID) (_ domain.User, err error) {
	const op = "storage.Session.GetUser"
	qry, args, err := s.sm.Select(s.sq.Select(), &user{}).
		From(usersTable).
		Where(sq.Eq{"id": int64(id)}).
		ToSql()
	if err != nil {
		s.log.Error(op+": failed to build query", "error", err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op, "qry", qry, "args", args)
	ctx, span := s.startSpan(ctx, op, qry)
	defer func() { endSpan(span, err) }()

	var row user
	err = s.tx.GetContext(ctx, &row, qry, args...)
	if errors.Is(err, sql.ErrNoRows) {
		s.log.Debug(op+": user not found", "id", id)
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		s.log.Error(op+": failed to get user", "error", err)
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return toDomain(row), nil
}

// GetUsers returns up to limit users ordered by id, skipping the first skip rows.
func (s *Session) GetUsers(ctx context.Context, skip, limit uint64) (_ []domain.User, err error) {
	const op = "storage.Session.GetUsers"
	qry, args, err := s.sm.Select(s.sq.Select(), &user{}).
		From(usersTable).
		OrderBy("id ASC").
		Limit(limit).
		Offset(skip).
		ToSql()
	if err != nil {
		s.log.Error(op+": failed to build query", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op, "qry", qry, "args", args)
	ctx, span := s.startSpan(ctx, op, qry)
	defer func() { endSpan(span, err) }()

	var rows []user
	if err = s.tx.SelectContext(ctx, &rows, qry, args...); err != nil {
		s.log.Error(op+": failed to select users", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, toDomain(row))
	}
	return users, nil
}

// UpdateUser overwrites first name, last name and age of the row with duser.ID.
func (s *Session) UpdateUser(ctx context.Context, duser domain.User) (err error) {
	const op = "storage.Session.UpdateUser"
	row := fromDomain(duser)
	qry, args, err := s.sq.Update(usersTable).
		SetMap(map[string]interface{}{
			"first_name": row.FirstName,
			"last_name":  row.LastName,
			"age":        row.Age,
		}).
		Where(sq.Eq{"id": row.ID}).
		ToSql()
	if err != nil {
		s.log.Error(op+": failed to build query", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op, "qry", qry, "args", args)
	ctx, span := s.startSpan(ctx, op, qry)
	defer func() { endSpan(span, err) }()

	res, err := s.tx.ExecContext(ctx, qry, args...)
	if err != nil {
		s.log.Error(op+": failed to update user", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.checkAffected(op, res)
}

func (s *Session) DeleteUser(ctx context.Context, id domain.UserID) (err error) {
	const op = "storage.Session.DeleteUser"
	qry, args, err := s.sq.Delete(usersTable).Where(sq.Eq{"id": int64(id)}).ToSql()
	if err != nil {
		s.log.Error(op+": failed to build query", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug(op, "qry", qry, "args", args)
	ctx, span := s.startSpan(ctx, op, qry)
	defer func() { endSpan(span, err) }()

	res, err := s.tx.ExecContext(ctx, qry, args...)
	if err != nil {
		s.log.Error(op+": failed to delete user", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.checkAffected(op, res)
}

func (s *Session) checkAffected(op string, res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		s.log.Error(op+": failed to read affected rows", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Session) Commit() error {
	const op = "storage.Session.Commit"
	if s.done {
		return fmt.Errorf("%s: %w", op, sql.ErrTxDone)
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		s.log.Error(op+": failed to commit", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close rolls back the transaction unless it was committed. Calling it more
// than once is a no-op.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("storage.Session.Close: %w", err)
	}
	return nil
}
