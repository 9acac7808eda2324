package dbmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolConfig(t *testing.T) {
	cfg, err := newPoolConfig(testProfile, poolSettings{MaxConns: 3, ConnectTimeout: 2 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, int32(3), cfg.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, testProfile.Host, cfg.ConnConfig.Host)
	assert.Equal(t, testProfile.Database, cfg.ConnConfig.Database)
}

func TestNewPoolConfig_ZeroKeepsDriverDefaults(t *testing.T) {
	def, err := newPoolConfig(testProfile, poolSettings{})
	require.NoError(t, err)

	assert.Positive(t, def.MaxConns)
	assert.Zero(t, def.ConnConfig.ConnectTimeout)
}
