package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expected    Config
		enabled     bool
		expectedErr bool
	}{
		{
			name:     "not configured",
			env:      map[string]string{},
			expected: Config{Port: "6379"},
		},
		{
			name: "host and port",
			env: map[string]string{
				EnvKeyHost: "cache", EnvKeyPort: "6380", EnvKeyPassword: "secret", EnvKeyDB: "2",
			},
			expected: Config{Host: "cache", Port: "6380", Password: "secret", DB: 2},
			enabled:  true,
		},
		{
			name:     "url",
			env:      map[string]string{EnvKeyURL: "redis://localhost:6379/1"},
			expected: Config{URL: "redis://localhost:6379/1", Port: "6379"},
			enabled:  true,
		},
		{
			name:        "invalid db",
			env:         map[string]string{EnvKeyDB: "one"},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvKeyURL, EnvKeyHost, EnvKeyPort, EnvKeyPassword, EnvKeyDB} {
				t.Setenv(k, tt.env[k])
			}

			cfg, err := LoadConfig()
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
			assert.Equal(t, tt.enabled, cfg.Enabled())
		})
	}
}

func TestConfig_Options(t *testing.T) {
	opt, err := Config{Host: "cache", Port: "6380", Password: "pw", DB: 3}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 3, opt.DB)

	opt, err = Config{URL: "redis://:pw@localhost:6390/4"}.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", opt.Addr)
	assert.Equal(t, 4, opt.DB)

	_, err = Config{URL: "http://not-redis"}.Options()
	assert.Error(t, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	rdb, err := NewRedisClient(context.Background(), Config{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
	assert.Nil(t, rdb)
}
