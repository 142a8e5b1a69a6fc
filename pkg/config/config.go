package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "maplecart"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Orders       OrdersConfig
	Finance      FinanceConfig
	Scheduler    SchedulerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Finance.StandardShares(); err != nil {
		return nil, err
	}
	if _, err := cfg.Finance.PremiumShares(); err != nil {
		return nil, err
	}
	if _, err := cfg.Finance.ReferralLayerShares(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MAPLECART_APP_ENV" required:"true"`
	Port         string `envconfig:"MAPLECART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MAPLECART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAPLECART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"MAPLECART_DB_DSN"`

	MaxOpenConns    int           `envconfig:"MAPLECART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAPLECART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAPLECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAPLECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAPLECART_REDIS_URL"`
	Address      string        `envconfig:"MAPLECART_REDIS_ADDR"`
	Password     string        `envconfig:"MAPLECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAPLECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAPLECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAPLECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAPLECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAPLECART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAPLECART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type OrdersConfig struct {
	// AutoReceiveDays is the grace period before a shipped order is
	// auto-completed and settled.
	AutoReceiveDays int    `envconfig:"MAPLECART_ORDERS_AUTO_RECEIVE_DAYS" default:"7"`
	PayWayAllowList string `envconfig:"MAPLECART_ORDERS_PAY_WAYS" default:"alipay,wechat,card,wx_pub,wx_app"`
}

// AllowedPayWays returns the configured payment method allow-list.
func (o OrdersConfig) AllowedPayWays() []string {
	parts := strings.Split(o.PayWayAllowList, ",")
	ways := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ways = append(ways, trimmed)
		}
	}
	return ways
}

// PoolShare is one pool's cut of an order total, in basis points.
type PoolShare struct {
	Pool string
	Bps  int
}

type FinanceConfig struct {
	// PlatformMerchantID is the settlement account owner used when a product
	// carries no merchant of its own.
	PlatformMerchantID string `envconfig:"MAPLECART_FINANCE_PLATFORM_MERCHANT_ID" default:"00000000-0000-0000-0000-000000000001"`

	// Split routes are "pool:bps" lists; the merchant receives the remainder
	// (including any rounding leftover). Premium-item orders use the premium
	// route. Exact percentages are an operator decision, not code.
	StandardSplit string `envconfig:"MAPLECART_FINANCE_STANDARD_SPLIT" default:"platform_maintenance:500,subsidy_pool:1000,development_fund:300,community_tier1:200,community_tier2:100"`
	PremiumSplit  string `envconfig:"MAPLECART_FINANCE_PREMIUM_SPLIT" default:"platform_maintenance:500,subsidy_pool:2000,development_fund:500,community_tier1:300,community_tier2:200"`

	ReferralEnabled     bool   `envconfig:"MAPLECART_FINANCE_REFERRAL_ENABLED" default:"false"`
	ReferralLayerBps    string `envconfig:"MAPLECART_FINANCE_REFERRAL_LAYER_BPS" default:"300,200,100"`
	DirectorMemberLevel int    `envconfig:"MAPLECART_FINANCE_DIRECTOR_MEMBER_LEVEL" default:"5"`
	DirectorDividendBps int    `envconfig:"MAPLECART_FINANCE_DIRECTOR_DIVIDEND_BPS" default:"100"`
}

// StandardShares parses the standard split route.
func (f FinanceConfig) StandardShares() ([]PoolShare, error) {
	return parseShares(f.StandardSplit)
}

// PremiumShares parses the premium split route.
func (f FinanceConfig) PremiumShares() ([]PoolShare, error) {
	return parseShares(f.PremiumSplit)
}

// ReferralLayerShares parses the per-layer commission basis points.
func (f FinanceConfig) ReferralLayerShares() ([]int, error) {
	parts := strings.Split(f.ReferralLayerBps, ",")
	layers := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		bps, err := strconv.Atoi(trimmed)
		if err != nil || bps < 0 {
			return nil, fmt.Errorf("invalid referral layer bps %q", part)
		}
		layers = append(layers, bps)
	}
	return layers, nil
}

func parseShares(raw string) ([]PoolShare, error) {
	parts := strings.Split(raw, ",")
	shares := make([]PoolShare, 0, len(parts))
	totalBps := 0
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		pool, rawBps, found := strings.Cut(trimmed, ":")
		if !found {
			return nil, fmt.Errorf("invalid split share %q (want pool:bps)", part)
		}
		bps, err := strconv.Atoi(strings.TrimSpace(rawBps))
		if err != nil || bps < 0 {
			return nil, fmt.Errorf("invalid split share bps %q", part)
		}
		shares = append(shares, PoolShare{Pool: strings.TrimSpace(pool), Bps: bps})
		totalBps += bps
	}
	if totalBps > 10000 {
		return nil, fmt.Errorf("split shares exceed 100%%: %d bps", totalBps)
	}
	return shares, nil
}

type SchedulerConfig struct {
	Interval time.Duration `envconfig:"MAPLECART_SCHEDULER_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"MAPLECART_SCHEDULER_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAPLECART_AUTO_MIGRATE" default:"false"`
}
