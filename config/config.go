package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string        `mapstructure:"port"`
		FrontendURL     string        `mapstructure:"frontend_url"`
		SecureCookies   bool          `mapstructure:"secure_cookies"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For.
		TrustedProxies []string `mapstructure:"trusted_proxies"`
	} `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
	JWT       JWTConfig      `mapstructure:"jwt"`
	Auth      AuthConfig     `mapstructure:"auth"`
	Admin     AdminConfig    `mapstructure:"admin"`
	Email     EmailConfig    `mapstructure:"email"`
	RateLimit struct {
		Burst     int `mapstructure:"burst"`
		PerSecond int `mapstructure:"per_second"`
	} `mapstructure:"rate_limit"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig configures the profile cache. An empty Host disables caching.
type RedisConfig struct {
	Host       string        `mapstructure:"host"`
	Port       string        `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
}

// JWTConfig holds the signing material for both token kinds.
// The two secrets must differ.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

type AuthConfig struct {
	BcryptCost            int           `mapstructure:"bcrypt_cost"`
	ResetTokenTTL         time.Duration `mapstructure:"reset_token_ttl"`
	RevokeSessionsOnReset bool          `mapstructure:"revoke_sessions_on_reset"`
	PruneInterval         time.Duration `mapstructure:"prune_interval"`
}

// AdminConfig is the out-of-band admin identity. PasswordHash is a bcrypt
// hash, see the hash-password command.
type AdminConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"`
	Name         string `mapstructure:"name"`
}

type EmailConfig struct {
	Provider string        `mapstructure:"provider"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
	SMTP     struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`
	Mailgun struct {
		Domain string `mapstructure:"domain"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"mailgun"`
	SendGrid struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"sendgrid"`
	Breaker struct {
		MaxFailures uint32        `mapstructure:"max_failures"`
		OpenTimeout time.Duration `mapstructure:"open_timeout"`
	} `mapstructure:"breaker"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "personal_brand")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.profile_ttl", "10m")

	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", "15m")
	v.SetDefault("jwt.refresh_ttl", "7d")

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.reset_token_ttl", "1h")
	v.SetDefault("auth.revoke_sessions_on_reset", true)
	v.SetDefault("auth.prune_interval", "1h")

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.name", "Admin")

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "noreply@personalbrand.com")
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", "587")
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.mailgun.domain", "")
	v.SetDefault("email.mailgun.api_key", "")
	v.SetDefault("email.sendgrid.api_key", "")
	v.SetDefault("email.breaker.max_failures", 5)
	v.SetDefault("email.breaker.open_timeout", "30s")

	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.per_second", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads config.yml from path (if present) and overlays
// environment variables, e.g. JWT_ACCESS_SECRET for jwt.access_secret.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		StringToDurationHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// Validate checks the invariants the auth core depends on.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt.access_secret and jwt.refresh_secret are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("jwt.access_secret and jwt.refresh_secret must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt ttl values must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return errors.New("auth.reset_token_ttl must be positive")
	}
	if c.Server.SecureCookies && (c.Email.Provider == "" || c.Email.Provider == "log") {
		return errors.New("email.provider must be a delivering provider when server.secure_cookies is enabled")
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// ParseDuration extends time.ParseDuration with a whole-day suffix, so "7d"
// is 168h. Mixed forms such as "1d12h" are not supported.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// StringToDurationHook decodes strings into time.Duration using ParseDuration.
func StringToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return ParseDuration(data.(string))
	}
}
