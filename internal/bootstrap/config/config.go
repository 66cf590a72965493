package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"assesseez/internal/bootstrap/logging"
	"assesseez/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Mail     MailConfig     `mapstructure:"mail"`
	Events   EventsConfig   `mapstructure:"events"`
	Upload   UploadConfig   `mapstructure:"upload"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MailConfig selects the outbound email provider: console, sendgrid or none.
type MailConfig struct {
	Provider       string        `mapstructure:"provider"`
	FromName       string        `mapstructure:"from_name"`
	FromAddress    string        `mapstructure:"from_address"`
	SendgridAPIKey string        `mapstructure:"sendgrid_api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	// Templates maps workflow template names to provider template ids.
	Templates map[string]string `mapstructure:"templates"`
}

// EventsConfig enables NATS publication of notification events when NatsURL is set.
type EventsConfig struct {
	NatsURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type UploadConfig struct {
	MaxSizeMB         int64    `mapstructure:"max_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	if err := loadDotEnv(logCtx); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AEZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configFile == "" && errors.As(err, &notFound):
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		case configFile != "" && errors.Is(err, os.ErrNotExist):
			logging.Warn(logCtx, "config file missing, fallback to defaults and env", slog.String("path", configFile))
		default:
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("mail_provider", cfg.Mail.Provider),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Mail.Provider)) {
	case "console", "none", "":
	case "sendgrid":
		if strings.TrimSpace(c.Mail.SendgridAPIKey) == "" {
			return errors.New("mail.sendgrid_api_key is required for the sendgrid provider")
		}
	default:
		return errors.New("mail.provider must be one of console, sendgrid, none")
	}
	if c.Upload.MaxSizeMB <= 0 {
		return errors.New("upload.max_size_mb must be positive")
	}
	return nil
}

// MaxUploadBytes converts the configured megabyte limit to bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	return u.MaxSizeMB * 1024 * 1024
}

func loadDotEnv(ctx context.Context) error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return errs.Wrap(err, "load .env")
	}
	logging.Info(ctx, "environment loaded from .env")
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "assesseez")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".data/assesseez.sqlite")
	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.from_name", "AssessEEZ")
	v.SetDefault("mail.from_address", "no-reply@assesseez.local")
	v.SetDefault("mail.sendgrid_api_key", "")
	v.SetDefault("mail.timeout", 10*time.Second)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "assesseez")
	v.SetDefault("upload.max_size_mb", 1000)
	v.SetDefault("upload.allowed_extensions", []string{
		"pdf", "jpg", "jpeg", "png", "mp4", "doc", "docx", "ppt", "pptx", "zip", "xls", "xlsx",
	})
	v.SetDefault("http.addr", ":8080")
}
