package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// knownEnvVars lists every variable these tests touch. clearEnv blanks them
// all through t.Setenv, so ambient values cannot leak in and the originals
// come back when the test ends. Viper treats an empty variable as unset.
var knownEnvVars = []string{
	"KEEPUP_APP_NAME",
	"KEEPUP_APP_ENV",
	"KEEPUP_APP_PORT",
	"KEEPUP_DATABASE_HOST",
	"KEEPUP_DATABASE_PORT",
	"KEEPUP_DATABASE_USER",
	"KEEPUP_DATABASE_PASSWORD",
	"KEEPUP_DATABASE_DBNAME",
	"KEEPUP_DATABASE_SSLMODE",
	"KEEPUP_DATABASE_MAX_OPEN_CONNS",
	"KEEPUP_DATABASE_MAX_IDLE_CONNS",
	"KEEPUP_CATALOG_DATABASE_DBNAME",
	"KEEPUP_CATALOG_DATABASE_SSLMODE",
	"KEEPUP_JWT_SECRET",
	"KEEPUP_STORAGE_BUCKET",
	"APP_ENV",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownEnvVars {
		t.Setenv(k, "")
	}
}

func setEnv(t *testing.T, pairs map[string]string) {
	t.Helper()
	for k, v := range pairs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "keepup-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "keepup", cfg.Database.DBName)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, "keepup_catalog", cfg.Catalog.Database.DBName)
	assert.Equal(t, "/admin/catalog/mappings", cfg.Publication.MappingAdminPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	setEnv(t, map[string]string{
		"KEEPUP_APP_NAME":                "test-app",
		"KEEPUP_APP_ENV":                 "testing",
		"KEEPUP_APP_PORT":                "9000",
		"KEEPUP_DATABASE_HOST":           "testdb.local",
		"KEEPUP_DATABASE_PORT":           "5433",
		"KEEPUP_DATABASE_USER":           "testuser",
		"KEEPUP_DATABASE_PASSWORD":       "testpass",
		"KEEPUP_DATABASE_DBNAME":         "testdb",
		"KEEPUP_DATABASE_SSLMODE":        "require",
		"KEEPUP_DATABASE_MAX_OPEN_CONNS": "50",
		"KEEPUP_DATABASE_MAX_IDLE_CONNS": "10",
		"KEEPUP_CATALOG_DATABASE_DBNAME": "catalogdb",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "testing", cfg.App.Env)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "testdb.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testuser", cfg.Database.User)
	assert.Equal(t, "testpass", cfg.Database.Password)
	assert.Equal(t, "testdb", cfg.Database.DBName)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 10, cfg.Database.MaxIdleConns)
	assert.Equal(t, "catalogdb", cfg.Catalog.Database.DBName)
}

func TestLoad_PoolValidation(t *testing.T) {
	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KEEPUP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("KEEPUP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero open conns falls back to default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KEEPUP_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("negative idle conns rejected", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KEEPUP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	productionBase := map[string]string{
		"KEEPUP_APP_ENV":                  "production",
		"KEEPUP_JWT_SECRET":               "this-is-a-very-secure-jwt-secret-key-32chars",
		"KEEPUP_DATABASE_PASSWORD":        "secure-password",
		"KEEPUP_DATABASE_SSLMODE":         "require",
		"KEEPUP_CATALOG_DATABASE_SSLMODE": "require",
	}

	tests := []struct {
		name     string
		override map[string]string
		wantErr  string
	}{
		{
			name:     "missing jwt secret",
			override: map[string]string{"KEEPUP_JWT_SECRET": ""},
			wantErr:  "jwt.secret is required in production",
		},
		{
			name:     "short jwt secret",
			override: map[string]string{"KEEPUP_JWT_SECRET": "short-secret"},
			wantErr:  "jwt.secret must be at least 32 characters",
		},
		{
			name:     "missing database password",
			override: map[string]string{"KEEPUP_DATABASE_PASSWORD": ""},
			wantErr:  "database.password is required in production",
		},
		{
			name:     "ssl disabled on internal store",
			override: map[string]string{"KEEPUP_DATABASE_SSLMODE": "disable"},
			wantErr:  "database.sslmode cannot be 'disable' in production",
		},
		{
			name:     "ssl disabled on catalog store",
			override: map[string]string{"KEEPUP_CATALOG_DATABASE_SSLMODE": "disable"},
			wantErr:  "catalog.database.sslmode cannot be 'disable' in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setEnv(t, productionBase)
			setEnv(t, tt.override)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid production config passes", func(t *testing.T) {
		clearEnv(t)
		setEnv(t, productionBase)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "localhost")
	assert.Contains(t, dsn, "5432")
	assert.Contains(t, dsn, "testuser")
	assert.Contains(t, dsn, "testdb")
	assert.Contains(t, dsn, "sslmode=disable")

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := cfg
		cfg.Password = "pass@word#123"
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("empty password still yields a DSN", func(t *testing.T) {
		cfg := cfg
		cfg.Password = ""
		assert.NotEmpty(t, cfg.DSN())
	})
}
