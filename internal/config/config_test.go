package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
session:
  ttl: 45m
auth:
  jwt_secret: from-file
`), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_ADDR", "localhost:6380")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, DefaultCoinsPerQuiz, cfg.Rewards.CoinsPerQuiz)
	assert.Equal(t, DefaultPassThreshold, cfg.Rewards.PassThreshold)
	assert.Equal(t, DefaultTiers, cfg.Redemption.Tiers)
	assert.Equal(t, "embedded", cfg.Catalog.Source)
	assert.Equal(t, 45*time.Minute, Duration(cfg.Session.TTL, time.Minute))
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCoinsPerQuiz, cfg.Rewards.CoinsPerQuiz)
	assert.Error(t, cfg.Validate(), "empty jwt secret must be rejected")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateTiers(t *testing.T) {
	require.NoError(t, ValidateTiers(DefaultTiers))

	cases := map[string][]domain.Tier{
		"empty":          nil,
		"zero reward":    {{CoinsCost: 100, RewardAmount: 0}},
		"non increasing": {{CoinsCost: 100, RewardAmount: 10}, {CoinsCost: 100, RewardAmount: 12}},
		"rate drops":     {{CoinsCost: 100, RewardAmount: 10}, {CoinsCost: 200, RewardAmount: 15}},
	}
	for name, tiers := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidateTiers(tiers))
		})
	}
}

func TestDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("soon", time.Second))
	assert.Equal(t, 2*time.Hour, Duration("2h", time.Second))
}
