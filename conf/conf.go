package conf

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
	"github.com/lyfdddd/ryadmin/internal/pkg/xredis"
	"github.com/lyfdddd/ryadmin/internal/server"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
	"github.com/lyfdddd/ryadmin/internal/server/db"
	"github.com/lyfdddd/ryadmin/internal/server/sweeper"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

// Config aggregates every component configuration. It embeds fx.Out so a
// single Load provider feeds each sub-config into the graph.
type Config struct {
	fx.Out `yaml:"-" json:"-"`

	Log       log.Config         `conf:"log" yaml:"log" json:"log"`
	APIServer server.Config      `conf:"server" yaml:"server" json:"server"`
	DB        db.Config          `conf:"db" yaml:"db" json:"db"`
	Redis     xredis.Config      `conf:"redis" yaml:"redis" json:"redis"`
	Cache     xcache.Config      `conf:"cache" yaml:"cache" json:"cache"`
	Tenant    tenant.Config      `conf:"tenant" yaml:"tenant" json:"tenant"`
	Auth      biz.AuthConfig     `conf:"auth" yaml:"auth" json:"auth"`
	Throttle  biz.ThrottleConfig `conf:"throttle" yaml:"throttle" json:"throttle"`
	Code      biz.CodeConfig     `conf:"code" yaml:"code" json:"code"`
	Sweeper   sweeper.Config     `conf:"sweeper" yaml:"sweeper" json:"sweeper"`
}

// Load reads configuration from (highest priority first) RYADMIN_*
// environment variables, an explicit RYADMIN_CONFIG file, a ryadmin.yml
// found on the search path, and built-in defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("ryadmin")
	v.SetConfigType("yaml")

	if path := os.Getenv("RYADMIN_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./conf")
		v.AddConfigPath("/etc/ryadmin")
	}

	v.SetEnvPrefix("RYADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.name", "ryadmin")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "ryadmin")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("db.dialect", "sqlite")
	v.SetDefault("db.dsn", "file:ryadmin.db?cache=shared&_fk=1")

	v.SetDefault("redis.addr", "127.0.0.1:6379")

	v.SetDefault("cache.mode", "memory")

	v.SetDefault("tenant.enabled", true)

	v.SetDefault("throttle.max_attempts", 5)
	v.SetDefault("throttle.lock_duration", 10*time.Minute)

	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("code.length", 6)
	v.SetDefault("code.ttl", 5*time.Minute)

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.cron", "0 0 3 * * *")
}
