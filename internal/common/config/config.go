package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Admin struct {
		Username string `env:"ADMIN_USERNAME,required"`
		Password string `env:"ADMIN_PASSWORD,required"`
	}

	Tasks struct {
		RequireTwitter  bool `env:"REQUIRE_TWITTER" envDefault:"true"`
		RequireTelegram bool `env:"REQUIRE_TELEGRAM" envDefault:"true"`

		// Injected failure rate of the simulated remote checker, 0..1.
		CheckerFailureRate float64       `env:"CHECKER_FAILURE_RATE" envDefault:"0.05"`
		CheckTimeout       time.Duration `env:"CHECK_TIMEOUT" envDefault:"15s"`

		// The holistic all-tasks check runs far longer than a single task
		// check, so it carries its own ceiling.
		CheckAllTimeout time.Duration `env:"CHECK_ALL_TIMEOUT" envDefault:"90s"`
	}

	Claim struct {
		BaseTokenAmount          int64 `env:"CLAIM_BASE_AMOUNT" envDefault:"100"`
		ReferralBonusPercent     int64 `env:"REFERRAL_BONUS_PERCENT" envDefault:"10"`
		ReferrerBonusPerReferral int64 `env:"REFERRER_BONUS_PER_REFERRAL" envDefault:"50"`
	}

	Notify struct {
		// Targets are channel:phone:apikey triples, comma separated:
		// "admin1:+34600000001:123456,admin2:+34600000002:654321"
		Targets []string `env:"NOTIFY_TARGETS,required" envSeparator:","`

		GatewayBaseURL   string        `env:"NOTIFY_GATEWAY_URL" envDefault:"https://api.callmebot.com"`
		TargetTimeout    time.Duration `env:"NOTIFY_TARGET_TIMEOUT" envDefault:"12s"`
		InterTargetDelay time.Duration `env:"NOTIFY_INTER_TARGET_DELAY" envDefault:"2s"`

		// Fallback channel used when every primary target fails.
		FallbackPhone  string `env:"NOTIFY_FALLBACK_PHONE" envDefault:""`
		FallbackAPIKey string `env:"NOTIFY_FALLBACK_APIKEY" envDefault:""`
	}

	Payment struct {
		ProviderURL  string        `env:"PAYMENT_PROVIDER_URL" envDefault:""`
		PollInterval time.Duration `env:"PAYMENT_POLL_INTERVAL" envDefault:"3s"`
		MaxAttempts  int           `env:"PAYMENT_MAX_ATTEMPTS" envDefault:"10"`
	}
}

// NotifyTarget is one parsed entry of Notify.Targets.
type NotifyTarget struct {
	ChannelID  string
	Address    string
	Credential string
}

// ParsedTargets returns Notify.Targets as typed entries. MustLoad has
// already validated the format.
func (c *Config) ParsedTargets() []NotifyTarget {
	targets := make([]NotifyTarget, 0, len(c.Notify.Targets))
	for _, raw := range c.Notify.Targets {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
		targets = append(targets, NotifyTarget{
			ChannelID:  parts[0],
			Address:    parts[1],
			Credential: parts[2],
		})
	}
	return targets
}

// MustLoad reads configuration from the environment (and an optional .env
// file) and panics on missing or malformed required settings. Absent
// required configuration is a startup-time fatal condition, never a
// per-request error.
func MustLoad() *Config {
	// Ignore a missing .env file; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}

	return cfg
}

func (c *Config) validate() error {
	if len(c.Notify.Targets) == 0 {
		return fmt.Errorf("NOTIFY_TARGETS must list at least one target")
	}
	for _, raw := range c.Notify.Targets {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return fmt.Errorf("malformed notification target %q, want channel:phone:apikey", raw)
		}
	}
	if c.Claim.BaseTokenAmount <= 0 {
		return fmt.Errorf("CLAIM_BASE_AMOUNT must be positive")
	}
	if c.Tasks.CheckerFailureRate < 0 || c.Tasks.CheckerFailureRate > 1 {
		return fmt.Errorf("CHECKER_FAILURE_RATE must be within [0, 1]")
	}
	if c.Payment.MaxAttempts <= 0 {
		return fmt.Errorf("PAYMENT_MAX_ATTEMPTS must be positive")
	}
	return nil
}
