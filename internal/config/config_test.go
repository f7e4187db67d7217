package config

import (
    "testing"
    "time"

    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestLoadReadsRequiredAndOptionalValues(t *testing.T) {
    t.Setenv("APP_ENV", "dev")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("DB_USER", "root")
    t.Setenv("DB_HOST", "127.0.0.1")
    t.Setenv("DB_PORT", "3306")
    t.Setenv("DB_NAME", "bookmyadvocate")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
    t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
    t.Setenv("BCRYPT_COST", "4")
    t.Setenv("ADVOCATE_FEE", "499.00")
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://broker/")

    cfg := Load()
    assert.Equal(t, "8080", cfg.Port)
    assert.Equal(t, 4, cfg.BcryptCost)
    assert.Equal(t, "media", cfg.MediaRoot)
    assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
    assert.True(t, cfg.AdvocateFee.Equal(decimal.RequireFromString("499")))
    assert.True(t, cfg.PaymentsEnabled())
    assert.True(t, cfg.IsDev())
    assert.Equal(t, "amqp://broker/", cfg.RabbitURL)
    assert.False(t, cfg.DBMigrate)
}

func TestZeroFeeDisablesPayments(t *testing.T) {
    cfg := Config{AdvocateFee: decimal.Zero}
    assert.False(t, cfg.PaymentsEnabled())
}

func TestRateLimitNormalize(t *testing.T) {
    c := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: 0}.normalize()
    require.Equal(t, 1, c.Capacity)
    require.Equal(t, 1, c.RefillTokens)
    require.Equal(t, time.Second, c.RefillInterval)
    require.Equal(t, 5*time.Second, c.TTL)
}

func TestEnvHelpersFallBack(t *testing.T) {
    t.Setenv("X_BOOL", "maybe")
    t.Setenv("X_INT", "abc")
    t.Setenv("X_DUR", "soon")
    assert.True(t, envBool("X_BOOL", true))
    assert.Equal(t, 7, envInt("X_INT", 7))
    assert.Equal(t, time.Minute, envDur("X_DUR", time.Minute))
}

func TestLoadRedisConfigPrefersHostAndPort(t *testing.T) {
    t.Setenv("REDIS_ADDR", "cache:6380")
    t.Setenv("REDIS_HOST", "")
    c := LoadRedisConfig()
    assert.Equal(t, "cache:6380", c.Addr)

    t.Setenv("REDIS_HOST", "redis")
    t.Setenv("REDIS_PORT", "6379")
    t.Setenv("REDIS_TLS", "yes")
    c = LoadRedisConfig()
    assert.Equal(t, "redis:6379", c.Addr)
    require.NotNil(t, c.Options().TLSConfig)
}

func TestLoadCacheConfigParsesMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head ,")
    c := LoadCacheConfig()
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, c.Methods)
    assert.Equal(t, 30*time.Second, c.TTL)
}
