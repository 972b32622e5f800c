package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/domain"
	"postboard/internal/migrations"
	"postboard/internal/repository"
)

// testDSNEnv names a postgres DSN used by the tests below. Each test gets its
// own schema, dropped on cleanup.
const testDSNEnv = "POSTBOARD_TEST_DATABASE_URL"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()

	admin, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	schema := fmt.Sprintf("postboard_test_%d", time.Now().UnixNano())
	_, err = admin.ExecContext(ctx, `CREATE SCHEMA `+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.ExecContext(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
	})

	db, err := Open(ctx, withSearchPath(t, dsn, schema))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func withSearchPath(t *testing.T, dsn, schema string) string {
	t.Helper()
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String()
}

func newRunner(t *testing.T, db *sql.DB) *migrations.Runner {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	runner, err := migrations.NewRunner(db, migrations.DialectPostgres, log)
	require.NoError(t, err)
	return runner
}

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db := openTestDB(t)
	_, err := newRunner(t, db).Up(context.Background())
	require.NoError(t, err)
	return db
}

func TestMigrationsUpTwice(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	runner := newRunner(t, db)

	applied, err := runner.Up(ctx)
	require.NoError(t, err)
	all, err := migrations.Sources(migrations.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, all, applied)

	applied, err = runner.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	pending, err := runner.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openMigrated(t))

	user := &domain.User{Username: "alice", PasswordHash: "one"}
	id, err := repo.Create(ctx, user)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, user.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.WithinDuration(t, user.CreatedAt, byName.CreatedAt, time.Millisecond)

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.Create(ctx, &domain.User{Username: "alice", PasswordHash: "two"})
	require.ErrorIs(t, err, repository.ErrDuplicateUsername)
	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "one", stored.PasswordHash)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, id+1000)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Create(ctx, &domain.User{Username: strings.Repeat("x", domain.MaxUsernameLength+1), PasswordHash: "hash"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(openMigrated(t))

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	first := &domain.Post{Title: "first"}
	_, err = repo.Create(ctx, first)
	require.NoError(t, err)
	second := &domain.Post{Title: "second"}
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	posts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Title)

	updated, err := repo.UpdateTitle(ctx, first.ID, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = repo.UpdateTitle(ctx, second.ID+1000, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), repository.ErrNotFound)
	_, err = repo.Get(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
