package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadPoolSettings(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "APP_PORT", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME",
		"JWT_SECRET", "ACCESS_TOKEN_TTL_MIN", "REFRESH_TOKEN_TTL_DAYS", "BCRYPT_COST",
	} {
		t.Setenv(k, "1")
	}

	cfg := Load()
	require.Equal(t, 25, cfg.DBMaxOpenConns)
	require.Equal(t, 25, cfg.DBMaxIdleConns)
	require.Equal(t, 30*time.Minute, cfg.DBConnLifetime)

	t.Setenv("DB_MAX_OPEN_CONNS", "100")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")

	cfg = Load()
	require.Equal(t, 100, cfg.DBMaxOpenConns)
	require.Equal(t, 10, cfg.DBMaxIdleConns)
	require.Equal(t, 5*time.Minute, cfg.DBConnLifetime)
}
