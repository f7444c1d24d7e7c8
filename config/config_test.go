package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database host is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Database.Port = 70000 },
			wantErr: "invalid database port",
		},
		{
			name:    "empty database name",
			mutate:  func(c *Config) { c.Database.Name = "" },
			wantErr: "database name is required",
		},
		{
			name:    "zero pool size",
			mutate:  func(c *Config) { c.Database.PoolSize = 0 },
			wantErr: "pool_size must be positive",
		},
		{
			name: "max below pool",
			mutate: func(c *Config) {
				c.Database.PoolSize = 10
				c.Database.MaxConnections = 5
			},
			wantErr: "max_connections must be >= pool_size",
		},
		{
			name:    "sample rate above 1",
			mutate:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "sample_rate must be between 0 and 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DefaultDatabaseConfig()
	assert.Equal(t,
		"root:@tcp(localhost:3306)/option_trade?charset=utf8mb4&parseTime=true",
		d.DSN())

	d.User = "app"
	d.Password = "secret"
	d.Charset = ""
	assert.Equal(t,
		"app:secret@tcp(localhost:3306)/option_trade?charset=utf8mb4&parseTime=true",
		d.DSN())
}

func TestConfig_IsProd(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.IsProd())
	cfg.Env = "Production"
	assert.True(t, cfg.IsProd())
	cfg.Env = "prod"
	assert.True(t, cfg.IsProd())
}
