package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/postboard.db", cfg.Database.Path)
	assert.Equal(t, HasherArgon2id, cfg.Auth.Hasher)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.False(t, cfg.Auth.UniformLoginErrors)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POSTBOARD_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("POSTBOARD_DATABASE_DRIVER", "Postgres")
	t.Setenv("POSTBOARD_DATABASE_URL", "postgres://localhost/postboard")
	t.Setenv("POSTBOARD_AUTH_HASHER", "bcrypt")
	t.Setenv("POSTBOARD_AUTH_UNIFORMLOGINERRORS", "true")
	t.Setenv("POSTBOARD_SERVER_SHUTDOWNTIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/postboard", cfg.Database.URL)
	assert.Equal(t, HasherBcrypt, cfg.Auth.Hasher)
	assert.True(t, cfg.Auth.UniformLoginErrors)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestDecodeRejectsInvalidSettings(t *testing.T) {
	tests := map[string]map[string]any{
		"unknown driver":        {"database.driver": "mysql"},
		"postgres without url":  {"database.driver": "postgres"},
		"sqlite without path":   {"database.path": " "},
		"unknown hasher":        {"auth.hasher": "md5"},
		"zero shutdown timeout": {"server.shutdowntimeout": "0s"},
	}

	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			for key, value := range overrides {
				v.Set(key, value)
			}

			_, err := decode(v)
			assert.Error(t, err)
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
