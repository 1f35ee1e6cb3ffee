package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AI_TIMEOUT", "")
	t.Setenv("BLOCKED_WORDS", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "fr", cfg.TranscriptionLanguage)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.Nil(t, cfg.BlockedWords)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("JWT_ACCESS_EXPIRY", "not-a-duration")
	t.Setenv("BLOCKED_WORDS", " foo, ,bar ")
	t.Setenv("LOG_RETENTION_DAYS", "-3")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, []string{"foo", "bar"}, cfg.BlockedWords)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Europe/Paris"}
	assert.Equal(t, "Europe/Paris", cfg.Location().String())

	cfg.Timezone = "Nowhere/Atlantis"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable TimeZone=UTC", cfg.DSN())
}
