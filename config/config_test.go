package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "portfolio"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Storage:  StorageConfig{UploadDir: "./uploads", PublicBase: "/uploads"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	short := validConfig()
	short.JWT.Secret = "short"
	err := short.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	noDir := validConfig()
	noDir.Storage.UploadDir = ""
	assert.Error(t, noDir.Validate())

	noPort := validConfig()
	noPort.Server.Port = ""
	assert.Error(t, noPort.Validate())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestGetEnvAsInt_BadValueFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	assert.Equal(t, 5432, getEnvAsInt("DB_PORT", 5432))
}
