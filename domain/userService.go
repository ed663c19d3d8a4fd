package domain

import (
	"context"
	"fmt"
	"log/slog"

	"userapi/iternal/config"
)

//go:generate mockgen -source=userService.go -destination=mocks/mock_store.go -package=mocks

// UserStore hands out sessions against the persisted users table.
type UserStore interface {
	Begin(ctx context.Context) (UserSession, error)
	Ping(ctx context.Context) error
}

// UserSession is one unit of work. Close must be called on every path; it
// rolls back whatever was not committed.
type UserSession interface {
	AddUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id UserID) (User, error)
	GetUsers(ctx context.Context, skip, limit uint64) ([]User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id UserID) error
	Commit() error
	Close() error
}

type UserService struct {
	store UserStore
	log   *slog.Logger
	cfg   *config.Config
}

func NewUserService(store UserStore, log *slog.Logger, cfg *config.Config) *UserService {
	return &UserService{
		store: store,
		log:   log,
		cfg:   cfg,
	}
}

// withSession runs fn inside a freshly acquired session and releases it
// whatever fn returns.
func (s UserService) withSession(ctx context.Context, op string, fn func(sess UserSession) error) error {
	sess, err := s.store.Begin(ctx)
	if err != nil {
		s.log.Error(op+": failed to begin session", "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.log.Warn(op+": failed to release session", "error", cerr)
		}
	}()
	return fn(sess)
}

func (s UserService) CreateUser(ctx context.Context, user User) (User, error) {
	const op = "UserService.CreateUser"
	s.log.Debug(op + ": trying to add user")
	// id is always assigned by the store
	user.ID = 0
	var created User
	err := s.withSession(ctx, op, func(sess UserSession) error {
		var err error
		created, err = sess.AddUser(ctx, user)
		if err != nil {
			return err
		}
		return sess.Commit()
	})
	if err != nil {
		s.log.Error(op+": failed to add user", "error", err)
		return User{}, err
	}
	s.log.Debug(op+": successfully added user", "id", created.ID)
	return created, nil
}

// ListUsers returns at most limit users after skipping skip rows. limit is
// capped at the configured maximum.
func (s UserService) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	const op = "UserService.ListUsers"
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = 0
	}
	if maxLimit := s.cfg.Pagination.MaxLimit; limit > maxLimit {
		s.log.Debug(op+": limit capped", "requested", limit, "max", maxLimit)
		limit = maxLimit
	}
	var users []User
	err := s.withSession(ctx, op, func(sess UserSession) error {
		var err error
		users, err = sess.GetUsers(ctx, uint64(skip), uint64(limit))
		return err
	})
	if err != nil {
		s.log.Error(op+": failed to list users", "error", err)
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (s UserService) GetUser(ctx context.Context, id UserID) (User, error) {
	const op = "UserService.GetUser"
	var user User
	err := s.withSession(ctx, op, func(sess UserSession) error {
		var err error
		user, err = sess.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser overwrites every mutable field of the user stored under id.
// The id inside data is ignored.
func (s UserService) UpdateUser(ctx context.Context, id UserID, data User) (User, error) {
	const op = "UserService.UpdateUser"
	var user User
	err := s.withSession(ctx, op, func(sess UserSession) error {
		var err error
		user, err = sess.GetUser(ctx, id)
		if err != nil {
			return err
		}
		user.FirstName = data.FirstName
		user.LastName = data.LastName
		user.Age = data.Age
		if err := sess.UpdateUser(ctx, user); err != nil {
			return err
		}
		return sess.Commit()
	})
	if err != nil {
		return User{}, err
	}
	s.log.Debug(op+": successfully updated user", "id", id)
	return user, nil
}

// DeleteUser removes the user and returns its last stored values.
func (s UserService) DeleteUser(ctx context.Context, id UserID) (User, error) {
	const op = "UserService.DeleteUser"
	var user User
	err := s.withSession(ctx, op, func(sess UserSession) error {
		var err error
		user, err = sess.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if err := sess.DeleteUser(ctx, id); err != nil {
			return err
		}
		return sess.Commit()
	})
	if err != nil {
		return User{}, err
	}
	s.log.Debug(op+": successfully deleted user", "id", id)
	return user, nil
}

func (s UserService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}
