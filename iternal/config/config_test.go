package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "database3.db", cfg.DB.DataSource())
	assert.Equal(t, "127.0.0.1:8000", cfg.Rest.Addr())
	assert.Equal(t, 10*time.Second, cfg.Rest.ReadTimeout)
	assert.Equal(t, 10, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.Contains(t, cfg.CORS.AllowOrigins, "http://localhost:8080")
	assert.NotContains(t, cfg.CORS.AllowOrigins, "*")
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
env: prod
db:
  driver: postgres
  user: app
  password: secret
  host: db
  name: users
rest:
  port: "9090"
pagination:
  max_limit: 50
`)
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, "9090", cfg.Rest.Port)
	assert.Equal(t, 50, cfg.Pagination.MaxLimit)
	assert.Equal(t,
		"user=app password=secret dbname=users host=db.internal port=5432 sslmode=disable",
		cfg.DB.DataSource())
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_DefaultLimitClampedToMax(t *testing.T) {
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "500")
	t.Setenv("PAGINATION_MAX_LIMIT", "20")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Pagination.DefaultLimit)
}

func TestLoad_CORSFromEnv(t *testing.T) {
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.example,*")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.example", "*"}, cfg.CORS.AllowOrigins)
}
