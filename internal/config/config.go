// Package config loads promowatch configuration from .env, an optional config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shanehull/promowatch/internal/logger"
)

// DefaultSourceURL is the Dexerto RAID promo code article.
const DefaultSourceURL = "https://www.dexerto.com/gaming/raid-shadow-legends-promo-codes-free-silver-xp-boosts-1773448/"

// Sinks accepted by alert.sink.
const (
	SinkDiscord = "discord"
	SinkEmail   = "email"
	SinkLog     = "log"
)

var ErrMissingToken = errors.New("discord token is required (set BOT_TOKEN)")

type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	Source  SourceConfig  `mapstructure:"source"`
	Poll    PollConfig    `mapstructure:"poll"`
	Alert   AlertConfig   `mapstructure:"alert"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Log     logger.Config `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	AppID   string `mapstructure:"app_id"`
	GuildID string `mapstructure:"guild_id"`
}

type SourceConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0,lte=15s"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gte=1s"`
}

type AlertConfig struct {
	Sink        string `mapstructure:"sink" validate:"oneof=discord email log"`
	Destination string `mapstructure:"destination"`
}

type SMTPConfig struct {
	Server string `mapstructure:"server"`
	Port   int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	User   string `mapstructure:"user"`
	Pass   string `mapstructure:"pass"`
	From   string `mapstructure:"from"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Server != "" && s.User != "" && s.Pass != ""
}

// FromAddress falls back to the SMTP user when no sender is configured.
func (s SMTPConfig) FromAddress() string {
	if s.From != "" {
		return s.From
	}
	return s.User
}

// Load reads configuration into a fresh viper instance. cfgFile may be empty.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.timeout", 15*time.Second)
	v.SetDefault("poll.interval", 60*time.Second)
	v.SetDefault("alert.sink", SinkDiscord)
	v.SetDefault("alert.destination", "")
	v.SetDefault("smtp.server", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", false)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.app_id", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.from", "")
}

// bindEnv adds the variable names that do not follow the key-to-env mapping.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"discord.token":     {"BOT_TOKEN", "DISCORD_TOKEN"},
		"discord.app_id":    {"DISCORD_APP_ID"},
		"discord.guild_id":  {"DISCORD_GUILD_ID"},
		"alert.destination": {"ALERT_DESTINATION", "ALERT_CHANNEL_ID"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Alert.Sink == SinkEmail && !c.SMTP.Enabled() {
		return errors.New("invalid configuration: alert.sink=email needs smtp.server, smtp.user and smtp.pass")
	}
	return nil
}

// RequireToken is checked by the commands that talk to Discord.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return ErrMissingToken
	}
	return nil
}
