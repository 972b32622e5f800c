package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/credential"
	"postboard/internal/domain"
	"postboard/internal/migrations"
	"postboard/internal/repository/sqlite"
)

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newHasher() credential.Hasher {
	return credential.NewArgon2id(credential.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "postboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner, err := migrations.NewRunner(db, migrations.DialectSQLite, newLogger())
	require.NoError(t, err)
	_, err = runner.Up(context.Background())
	require.NoError(t, err)
	return db
}

func newUserService(t *testing.T, opts UserServiceOptions) (UserService, *sql.DB) {
	t.Helper()
	db := openStore(t)
	opts.Logger = newLogger()
	return NewUserService(sqlite.NewUserRepository(db), newHasher(), opts), db
}

func countUsers(t *testing.T, db *sql.DB, username string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "user" WHERE username = ?`, username).Scan(&n))
	return n
}

func requireFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	fe, ok := AsFieldError(err)
	require.True(t, ok, "expected field error, got %v", err)
	assert.Equal(t, field, fe.Field)
	assert.Equal(t, message, fe.Message)
}

func TestRegisterRejectsShortUsername(t *testing.T) {
	svc, db := newUserService(t, UserServiceOptions{})

	for _, username := range []string{"", "a", "ab", "éé"} {
		user, err := svc.Register(context.Background(), Credentials{Username: username, Password: "x"})
		assert.Nil(t, user)
		// username is checked first, so the short password is not reported
		requireFieldError(t, err, FieldUsername, MsgUsernameTooShort)
		assert.Zero(t, countUsers(t, db, username))
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, db := newUserService(t, UserServiceOptions{})

	for _, password := range []string{"", "p", "pw"} {
		user, err := svc.Register(context.Background(), Credentials{Username: "dave", Password: password})
		assert.Nil(t, user)
		requireFieldError(t, err, FieldPassword, MsgPasswordTooShort)
	}
	assert.Zero(t, countUsers(t, db, "dave"))
}

func TestRegisterCreatesSanitizedUser(t *testing.T) {
	svc, db := newUserService(t, UserServiceOptions{})

	user, err := svc.Register(context.Background(), Credentials{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Positive(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.UpdatedAt.Before(user.CreatedAt))

	var stored string
	require.NoError(t, db.QueryRow(`SELECT password FROM "user" WHERE id = ?`, user.ID).Scan(&stored))
	assert.NotEqual(t, "secret123", stored)
	assert.True(t, strings.HasPrefix(stored, "$argon2id$"))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, db := newUserService(t, UserServiceOptions{})
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "alice", Password: "secret123"})
	require.NoError(t, err)

	user, err := svc.Register(ctx, Credentials{Username: "alice", Password: "other456"})
	assert.Nil(t, user)
	requireFieldError(t, err, FieldUsername, MsgUsernameTaken)
	assert.Equal(t, 1, countUsers(t, db, "alice"))
}

func TestRegisterConcurrentSameUsername(t *testing.T) {
	svc, db := newUserService(t, UserServiceOptions{})
	ctx := context.Background()

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		taken     int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, Credentials{Username: "carol", Password: "password1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if fe, ok := AsFieldError(err); ok && fe.Message == MsgUsernameTaken {
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, taken)
	assert.Equal(t, 1, countUsers(t, db, "carol"))
}

func TestLoginFlow(t *testing.T) {
	svc, _ := newUserService(t, UserServiceOptions{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, Credentials{Username: "bob", Password: "password1"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, Credentials{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "bob", user.Username)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Login(ctx, Credentials{Username: "nobody", Password: "whatever"})
	requireFieldError(t, err, FieldUsername, MsgNoSuchIdentity)

	_, err = svc.Login(ctx, Credentials{Username: "bob", Password: "wrongpass"})
	requireFieldError(t, err, FieldPassword, MsgInvalidCredentials)

	// lookups are exact
	_, err = svc.Login(ctx, Credentials{Username: "bob ", Password: "password1"})
	requireFieldError(t, err, FieldUsername, MsgNoSuchIdentity)
}

func TestLoginUniformErrors(t *testing.T) {
	svc, _ := newUserService(t, UserServiceOptions{UniformLoginErrors: true})
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "bob", Password: "password1"})
	require.NoError(t, err)

	_, unknown := svc.Login(ctx, Credentials{Username: "nobody", Password: "whatever"})
	_, wrong := svc.Login(ctx, Credentials{Username: "bob", Password: "wrongpass"})
	requireFieldError(t, unknown, FieldPassword, MsgInvalidCredentials)
	requireFieldError(t, wrong, FieldPassword, MsgInvalidCredentials)
}

func TestGetByID(t *testing.T) {
	svc, _ := newUserService(t, UserServiceOptions{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, Credentials{Username: "erin", Password: "password1"})
	require.NoError(t, err)

	user, err := svc.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin", user.Username)
	assert.Empty(t, user.PasswordHash)

	missing, err := svc.GetByID(ctx, registered.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

type failingUserRepo struct {
	createErr error
	getErr    error
	user      *domain.User
}

func (r failingUserRepo) Create(context.Context, *domain.User) (int64, error) {
	return 0, r.createErr
}

func (r failingUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return r.user, r.getErr
}

func (r failingUserRepo) GetByID(context.Context, int64) (*domain.User, error) {
	return r.user, r.getErr
}

func TestStoreFailuresAreFatal(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewUserService(failingUserRepo{createErr: boom, getErr: boom}, newHasher(), UserServiceOptions{Logger: newLogger()})
	ctx := context.Background()

	_, err := svc.Register(ctx, Credentials{Username: "frank", Password: "password1"})
	require.ErrorIs(t, err, boom)
	_, isField := AsFieldError(err)
	assert.False(t, isField)

	_, err = svc.Login(ctx, Credentials{Username: "frank", Password: "password1"})
	require.ErrorIs(t, err, boom)
}

func TestMalformedStoredHashIsFatal(t *testing.T) {
	repo := failingUserRepo{user: &domain.User{ID: 7, Username: "gina", PasswordHash: "not-a-hash"}}
	svc := NewUserService(repo, newHasher(), UserServiceOptions{Logger: newLogger()})

	_, err := svc.Login(context.Background(), Credentials{Username: "gina", Password: "password1"})
	require.ErrorIs(t, err, credential.ErrMalformedHash)
	_, isField := AsFieldError(err)
	assert.False(t, isField)
}

func TestFieldErrorMessage(t *testing.T) {
	err := error(&FieldError{Field: FieldUsername, Message: MsgUsernameTaken})
	assert.Equal(t, "username: username already taken", err.Error())

	_, ok := AsFieldError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = AsFieldError(nil)
	assert.False(t, ok)
}
