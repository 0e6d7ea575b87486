package config

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("PORT", "")
	t.Setenv("STRICT_STAGE_GATING", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.False(t, cfg.App.StrictStageGating)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STRICT_STAGE_GATING", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.App.StrictStageGating)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 2.5, cfg.Server.RateLimitRPS, 1e-9)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("STRICT_STAGE_GATING", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.False(t, cfg.App.StrictStageGating)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: "8080"},
			Storage: StorageConfig{Backend: BackendMemory},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Server.Port = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.Storage.Backend = "mongo"
	assert.Error(t, c.Validate())

	c = valid()
	c.Storage.Backend = BackendRedis
	assert.Error(t, c.Validate())

	c = valid()
	c.Server.RateLimitRPS = 5
	c.Server.RateLimitBurst = 0
	assert.Error(t, c.Validate())
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "gate", MaxConns: 4}}
	assert.Equal(t, "postgres://u:p@db:5433/gate?pool_max_conns=4&sslmode=disable", c.PostgresDSN())

	c.Database.DSN = "postgres://explicit"
	assert.Equal(t, "postgres://explicit", c.PostgresDSN())
}

func TestPostgresDSN_EscapesCredentials(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "db.internal", Port: 5432, User: "gate:admin", Password: "p@ss/w#rd?", Name: "gate"}}

	pc, err := pgxpool.ParseConfig(c.PostgresDSN())
	require.NoError(t, err)
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5432), pc.ConnConfig.Port)
	assert.Equal(t, "gate:admin", pc.ConnConfig.User)
	assert.Equal(t, "p@ss/w#rd?", pc.ConnConfig.Password)
	assert.Equal(t, "gate", pc.ConnConfig.Database)
}
