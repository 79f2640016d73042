package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Flota-api/pkg/config"
)

func TestPoolConfig_TamañoYParametros(t *testing.T) {
	cfg := config.DBConfig{
		Host: "db", Port: 5432, User: "flota", Password: "secreta", DBName: "flota", SSLMode: "disable",
		MaxConns: 10, MinConns: 3, ConnMaxLifetime: 15, LockTimeoutMs: 2500, ApplicationName: "flota-api",
	}

	pc, err := PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 15*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "flota", pc.ConnConfig.Database)
	assert.Equal(t, "2500", pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.Equal(t, "flota-api", pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfig_ValoresPorDefecto(t *testing.T) {
	pc, err := PoolConfig(config.DBConfig{DatabaseURL: "postgres://flota@db:5432/flota?sslmode=disable", MinConns: 50})
	require.NoError(t, err)

	assert.Equal(t, int32(25), pc.MaxConns)
	assert.Equal(t, int32(25), pc.MinConns, "MinConns no supera MaxConns")
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	_, ok := pc.ConnConfig.RuntimeParams["lock_timeout"]
	assert.False(t, ok)
}

func TestPoolConfig_DSNInvalido(t *testing.T) {
	_, err := PoolConfig(config.DBConfig{DatabaseURL: "postgres://flota@db:notaport/flota"})
	assert.Error(t, err)
}
