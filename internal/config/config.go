// Package config loads service settings from an optional YAML file, a .env
// file and GYMCRM_* environment variables, in increasing priority.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // gym zones on hosts without a zoneinfo database

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment variable, e.g. GYMCRM_API_BASE_URL.
const EnvPrefix = "GYMCRM"

// Config is the full service configuration.
type Config struct {
	Env       string        `mapstructure:"env" validate:"oneof=development production"`
	LogLevel  string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Addr      string        `mapstructure:"addr" validate:"required,hostname_port"`
	DBPath    string        `mapstructure:"db_path" validate:"required"`
	SlowQuery time.Duration `mapstructure:"slow_query" validate:"min=0"` // 0 turns off slow-query warnings
	Timezone  string        `mapstructure:"timezone" validate:"required,timezone"`

	API struct {
		BaseURL string        `mapstructure:"base_url" validate:"required,url"`
		Token   string        `mapstructure:"token"`
		Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
	} `mapstructure:"api"`

	HTTP struct {
		CSRFKey        string   `mapstructure:"csrf_key" validate:"omitempty,hexadecimal,len=64"`
		SecureCookies  bool     `mapstructure:"secure_cookies"`
		TrustedOrigins []string `mapstructure:"trusted_origins"`
		RateLimit      int      `mapstructure:"rate_limit" validate:"min=1"`
	} `mapstructure:"http"`

	Schedule struct {
		Sync       string        `mapstructure:"sync" validate:"omitempty,cronspec"`
		Reminders  string        `mapstructure:"reminders" validate:"omitempty,cronspec"`
		JobTimeout time.Duration `mapstructure:"job_timeout" validate:"min=0"`
	} `mapstructure:"schedule"`

	Email struct {
		Provider  string `mapstructure:"provider" validate:"oneof=noop resend smtp"`
		From      string `mapstructure:"from" validate:"required_unless=Provider noop"`
		ReplyTo   string `mapstructure:"reply_to" validate:"omitempty,email"`
		GymName   string `mapstructure:"gym_name" validate:"required"`
		ResendKey string `mapstructure:"resend_key" validate:"required_if=Provider resend"`
		SMTP      struct {
			Host     string `mapstructure:"host"`
			Port     int    `mapstructure:"port" validate:"min=1,max=65535"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
		} `mapstructure:"smtp"`
	} `mapstructure:"email"`
}

var defaults = map[string]any{
	"env":                  "development",
	"log_level":            "",
	"addr":                 ":8080",
	"db_path":              "gymcrm.db",
	"slow_query":           "50ms",
	"timezone":             "America/Argentina/Buenos_Aires",
	"api.base_url":         "",
	"api.token":            "",
	"api.timeout":          "10s",
	"http.csrf_key":        "",
	"http.secure_cookies":  false,
	"http.trusted_origins": []string{},
	"http.rate_limit":      10,
	"schedule.sync":        "@every 15m",
	"schedule.reminders":   "0 9 * * *",
	"schedule.job_timeout": "5m",
	"email.provider":       "noop",
	"email.from":           "",
	"email.reply_to":       "",
	"email.gym_name":       "Gimnasio",
	"email.resend_key":     "",
	"email.smtp.host":      "",
	"email.smtp.port":      587,
	"email.smtp.username":  "",
	"email.smtp.password":  "",
}

// LoadDotEnv copies variables from the given .env files into the process
// environment. Variables already set are kept, and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := gotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration. path names an optional YAML file; empty skips it.
// PRE: none
// POST: Returns a validated Config, or an error naming every invalid field
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.Email.Provider == "smtp" && c.Email.SMTP.Host == "" {
			return errors.New("invalid config: email.smtp.host is required for the smtp provider")
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Location returns the gym time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CSRFKeyBytes decodes the CSRF key; nil when unset.
func (c *Config) CSRFKeyBytes() []byte {
	if c.HTTP.CSRFKey == "" {
		return nil
	}
	key, err := hex.DecodeString(c.HTTP.CSRFKey)
	if err != nil {
		return nil
	}
	return key
}
