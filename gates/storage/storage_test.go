package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userapi/domain"
	"userapi/iternal/config"
	"userapi/iternal/logger"
)

func age(v int64) *int64 { return &v }

// openTestStore opens a named in-memory sqlite database with the schema applied.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.DB{
		Driver: config.DriverSQLite,
		Path:   "file:" + name + "?mode=memory&cache=shared",
	}
	ctx := context.Background()
	store, err := Open(ctx, cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, Migrate(ctx, store))
	return store
}

func addUser(t *testing.T, store *Store, u domain.User) domain.User {
	t.Helper()
	ctx := context.Background()
	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()
	created, err := sess.AddUser(ctx, u)
	require.NoError(t, err)
	require.NoError(t, sess.Commit())
	return created
}

func TestMigrate_Idempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, store))
	v, err := MigrationVersion(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestSession_AddAndGetUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := addUser(t, store, domain.User{FirstName: "Emily", LastName: "Johnson", Age: age(28)})
	second := addUser(t, store, domain.User{FirstName: "Bob", LastName: "Lee"})
	assert.Equal(t, domain.UserID(1), first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()

	got, err := sess.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = sess.GetUser(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Age)
	assert.Equal(t, "Bob", got.FirstName)
}

func TestSession_GetUserNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.GetUser(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSession_GetUsersPaging(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		addUser(t, store, domain.User{FirstName: name, LastName: name})
	}

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()

	all, err := sess.GetUsers(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].FirstName)
	assert.Equal(t, "c", all[2].FirstName)

	page, err := sess.GetUsers(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].FirstName)

	none, err := sess.GetUsers(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSession_UpdateUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	u := addUser(t, store, domain.User{FirstName: "Alice", LastName: "Lee", Age: age(30)})

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.UpdateUser(ctx, domain.User{ID: u.ID, FirstName: "Bob", LastName: "Lee"}))
	require.NoError(t, sess.Commit())
	require.NoError(t, sess.Close())

	sess, err = store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()
	got, err := sess.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: u.ID, FirstName: "Bob", LastName: "Lee"}, got)

	err = sess.UpdateUser(ctx, domain.User{ID: 999, FirstName: "x", LastName: "y"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSession_DeleteUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	u := addUser(t, store, domain.User{FirstName: "Alice", LastName: "Lee"})

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.DeleteUser(ctx, u.ID))
	require.NoError(t, sess.Commit())

	sess, err = store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()
	assert.ErrorIs(t, sess.DeleteUser(ctx, u.ID), domain.ErrUserNotFound)
	_, err = sess.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSession_CloseWithoutCommitRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	created, err := sess.AddUser(ctx, domain.User{FirstName: "Ghost", LastName: "User"})
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	sess, err = store.Begin(ctx)
	require.NoError(t, err)
	defer sess.Close()
	_, err = sess.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSession_IDsAreNotReused(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	first := addUser(t, store, domain.User{FirstName: "a", LastName: "a"})

	sess, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.DeleteUser(ctx, first.ID))
	require.NoError(t, sess.Commit())

	second := addUser(t, store, domain.User{FirstName: "b", LastName: "b"})
	assert.Greater(t, int64(second.ID), int64(first.ID))
}

func TestStore_Ping(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, config.DriverSQLite, store.Driver())
}
