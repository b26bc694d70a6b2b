package config

import (
	"os"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Verification struct {
		BaseURL    string `yaml:"base_url"`
		Timeout    string `yaml:"timeout"`
		RetryCount int    `yaml:"retry_count"`
		CacheTTL   string `yaml:"cache_ttl"`
	} `yaml:"verification"`
	Catalog struct {
		// Source is "embedded" (default), "file" or "postgres".
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
	} `yaml:"catalog"`
	Rewards struct {
		CoinsPerQuiz  int `yaml:"coins_per_quiz"`
		PassThreshold int `yaml:"pass_threshold"`
	} `yaml:"rewards"`
	Redemption struct {
		Tiers []domain.Tier `yaml:"tiers"`
	} `yaml:"redemption"`
}

const (
	DefaultCoinsPerQuiz  = 50
	DefaultPassThreshold = 3
)

// DefaultTiers is the redemption table used when none is configured.
var DefaultTiers = []domain.Tier{
	{CoinsCost: 5000, RewardAmount: 500},
	{CoinsCost: 10000, RewardAmount: 1100},
	{CoinsCost: 25000, RewardAmount: 3000},
}

// Load reads YAML config from path, then applies env overrides and defaults.
// A missing file yields defaults so the service can boot from env alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.Postgres.URL, "POSTGRES_URL")
	override(&c.Redis.Addr, "REDIS_ADDR")
	override(&c.Redis.Password, "REDIS_PASSWORD")
	override(&c.Verification.BaseURL, "VERIFICATION_BASE_URL")
}

func (c *Config) applyDefaults() {
	if c.Rewards.CoinsPerQuiz == 0 {
		c.Rewards.CoinsPerQuiz = DefaultCoinsPerQuiz
	}
	if c.Rewards.PassThreshold == 0 {
		c.Rewards.PassThreshold = DefaultPassThreshold
	}
	if len(c.Redemption.Tiers) == 0 {
		c.Redemption.Tiers = append([]domain.Tier(nil), DefaultTiers...)
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "ffquiz-service"
	}
	if c.Catalog.Source == "" {
		c.Catalog.Source = "embedded"
	}
	if c.Verification.RetryCount == 0 {
		c.Verification.RetryCount = 2
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) must be set")
	}
	if err := ValidateTiers(c.Redemption.Tiers); err != nil {
		return errors.Wrap(err, "redemption.tiers")
	}
	switch c.Catalog.Source {
	case "embedded", "file", "postgres":
	default:
		return errors.Errorf("catalog.source %q is not one of embedded, file, postgres", c.Catalog.Source)
	}
	if c.Catalog.Source == "file" && c.Catalog.Path == "" {
		return errors.New("catalog.path is required when catalog.source is file")
	}
	if c.Catalog.Source == "postgres" && c.Postgres.URL == "" {
		return errors.New("postgres.url is required when catalog.source is postgres")
	}
	return nil
}

// ValidateTiers checks that costs strictly increase, amounts are positive and
// the reward per coin never decreases from one tier to the next.
func ValidateTiers(tiers []domain.Tier) error {
	if len(tiers) == 0 {
		return errors.New("at least one tier is required")
	}
	for i, t := range tiers {
		if t.CoinsCost <= 0 || t.RewardAmount <= 0 {
			return errors.Errorf("tier %d: coins and reward must be positive", i)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if t.CoinsCost <= prev.CoinsCost {
			return errors.Errorf("tier %d: cost %d does not exceed previous cost %d", i, t.CoinsCost, prev.CoinsCost)
		}
		// Cross-multiplied to compare rates without float rounding.
		if t.RewardAmount*prev.CoinsCost < prev.RewardAmount*t.CoinsCost {
			return errors.Errorf("tier %d: rate %.4f is lower than previous rate %.4f", i, t.Rate(), prev.Rate())
		}
	}
	return nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
