package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// Watch re-reads the config file on change and invokes onChange with the
// freshly unmarshalled Config. Invalid updates are reported and skipped so a
// bad edit never replaces a good running configuration.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	if v == nil || onChange == nil {
		return
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			if onError != nil {
				onError(fmt.Errorf("unmarshal config on change: %w", err))
			}
			return
		}

		validate := validator.New(validator.WithRequiredStructEnabled())
		if err := validate.Struct(cfg); err != nil {
			if onError != nil {
				onError(fmt.Errorf("validate config on change: %w", err))
			}
			return
		}

		onChange(&cfg)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.webhook_path", "/webhook")
	v.SetDefault("server.ops_addr", ":9090")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("bot.channel", "vk")
	v.SetDefault("bot.vk.api_version", "5.131")
	v.SetDefault("bot.telegram.timeout", 10*time.Second)

	v.SetDefault("kinopoisk.timeout", 10*time.Second)

	v.SetDefault("podcast.enabled", true)
	v.SetDefault("podcast.community", "serialchoice")

	v.SetDefault("recommend.delay_min", time.Second)
	v.SetDefault("recommend.delay_max", 2*time.Second)
	v.SetDefault("recommend.similar_limit", 10)
	v.SetDefault("recommend.result_limit", 5)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 10*time.Minute)

	v.SetDefault("assets.dictionary_path", "assets/dictionary.txt")
	v.SetDefault("assets.genres_path", "assets/genres.yaml")
	v.SetDefault("assets.movie_types_path", "assets/movie_types.yaml")
	v.SetDefault("assets.locales_dir", "internal/i18n/locales")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
