// Package config provides configuration loading and validation utilities.
package config

import (
	"time"

	"github.com/kinoscout/movie-bot/pkg/logger"
	"github.com/kinoscout/movie-bot/pkg/redis"
)

// Config holds the full runtime configuration of the movie bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Server struct {
		Port        string `mapstructure:"port" validate:"required"`
		WebhookPath string `mapstructure:"webhook_path"`
		// OpsAddr serves the health probe and Prometheus metrics.
		OpsAddr         string        `mapstructure:"ops_addr"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Bot struct {
		// Channel selects the messaging transport: "vk" or "telegram".
		Channel string `mapstructure:"channel" validate:"required,oneof=vk telegram"`

		VK struct {
			Token        string `mapstructure:"token"`
			Confirmation string `mapstructure:"confirmation"`
			Secret       string `mapstructure:"secret"`
			GroupID      int64  `mapstructure:"group_id"`
			APIVersion   string `mapstructure:"api_version"`
		} `mapstructure:"vk"`

		Telegram struct {
			Token   string        `mapstructure:"token"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"telegram"`
	} `mapstructure:"bot"`

	Kinopoisk struct {
		BaseURL string        `mapstructure:"base_url" validate:"required,url"`
		APIKey  string        `mapstructure:"api_key" validate:"required"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"kinopoisk"`

	Podcast struct {
		Enabled     bool   `mapstructure:"enabled"`
		AccessToken string `mapstructure:"access_token"`
		Community   string `mapstructure:"community"`
	} `mapstructure:"podcast"`

	Recommend struct {
		DelayMin     time.Duration `mapstructure:"delay_min"`
		DelayMax     time.Duration `mapstructure:"delay_max"`
		SimilarLimit int           `mapstructure:"similar_limit"`
		ResultLimit  int           `mapstructure:"result_limit"`
	} `mapstructure:"recommend"`

	Session struct {
		// Backend is "memory" or "redis".
		Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"session"`

	RateLimit struct {
		Enabled bool          `mapstructure:"enabled"`
		Limit   int           `mapstructure:"limit"`
		Window  time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`

	Idempotency struct {
		Enabled bool          `mapstructure:"enabled"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"idempotency"`

	Assets struct {
		DictionaryPath string `mapstructure:"dictionary_path"`
		GenresPath     string `mapstructure:"genres_path"`
		MovieTypesPath string `mapstructure:"movie_types_path"`
		LocalesDir     string `mapstructure:"locales_dir"`
	} `mapstructure:"assets"`

	Redis redis.Config `mapstructure:"redis"`

	Log logger.Config `mapstructure:"log"`

	Sentry struct {
		Enabled     bool    `mapstructure:"enabled"`
		DSN         string  `mapstructure:"dsn"`
		Environment string  `mapstructure:"environment"`
		SampleRate  float64 `mapstructure:"sample_rate"`
	} `mapstructure:"sentry"`
}
