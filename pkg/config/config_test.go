package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.App.StoreDriver)
	assert.True(t, cfg.Orders.Precheck)
	assert.Equal(t, 100, cfg.Orders.MaxItems)
	assert.Equal(t, 2, cfg.Orders.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.Empty(t, cfg.Notify.KafkaBrokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.Seed.Email)
	assert.Equal(t, "ADMIN", cfg.Seed.Role)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("ORDERS_PRECHECK", "false")
	t.Setenv("ORDERS_MAX_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SEED_EMAIL", "ana@demo.test")
	t.Setenv("SEED_ROLE", "operator")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ana@demo.test", cfg.Seed.Email)
	assert.Equal(t, "OPERATOR", cfg.Seed.Role)
	assert.Equal(t, "memory", cfg.App.StoreDriver)
	assert.False(t, cfg.Orders.Precheck)
	assert.Equal(t, 5, cfg.Orders.MaxRetries)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.KafkaBrokers)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("sin secreto JWT", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("driver desconocido", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secreto")
		t.Setenv("STORE_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", DBName: "pedidos", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/pedidos?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
