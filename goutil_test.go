package goutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BaSui01/goutil/config"
	"github.com/BaSui01/goutil/mysql"
)

func TestDatabaseConfig_Mapping(t *testing.T) {
	d := config.DatabaseConfig{
		Host:            "db.internal",
		Port:            3307,
		User:            "app",
		Password:        "secret",
		Name:            "trades",
		PoolSize:        8,
		MaxConnections:  16,
		ConnectTimeout:  3 * time.Second,
		AcquireTimeout:  7 * time.Second,
		ConnMaxLifetime: 20 * time.Minute,
	}

	mc := DatabaseConfig(d)
	assert.Equal(t, "db.internal", mc.Host)
	assert.Equal(t, 3307, mc.Port)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "secret", mc.Password)
	assert.Equal(t, "trades", mc.Database)
	assert.Equal(t, 8, mc.PoolSize)
	assert.Equal(t, 16, mc.MaxConnections)
	assert.Equal(t, 3*time.Second, mc.ConnectTimeout)
	assert.Equal(t, 7*time.Second, mc.AcquireTimeout)
	assert.Equal(t, 20*time.Minute, mc.ConnMaxLifetime)
}

func TestDatabaseConfig_ZeroDurationsKeepDefaults(t *testing.T) {
	d := config.DefaultDatabaseConfig()
	d.ConnectTimeout = 0
	d.AcquireTimeout = 0
	d.ConnMaxLifetime = 0

	mc := DatabaseConfig(d)
	def := mysql.DefaultConfig()
	assert.Equal(t, def.ConnectTimeout, mc.ConnectTimeout)
	assert.Equal(t, def.AcquireTimeout, mc.AcquireTimeout)
	assert.Equal(t, def.ConnMaxLifetime, mc.ConnMaxLifetime)
}
