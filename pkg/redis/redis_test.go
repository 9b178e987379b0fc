package redis

import (
	"context"
	"testing"
	"time"

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklist_DisabledIsNoop(t *testing.T) {
	require.False(t, Enabled())

	ctx := context.Background()
	assert.NoError(t, BlacklistToken(ctx, "jti-1", time.Minute))

	revoked, err := IsTokenBlacklisted(ctx, "jti-1")
	assert.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, Close())
}

func TestInit_UnreachableServer(t *testing.T) {
	err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
	assert.False(t, Enabled())
}

func TestBlacklistKey(t *testing.T) {
	assert.Equal(t, "campusmarket:blacklist:abc", blacklistKey("abc"))
}
