package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/kinoscout/movie-bot/internal/apperr"
	"github.com/kinoscout/movie-bot/internal/bot"
	"github.com/kinoscout/movie-bot/internal/catalog"
	"github.com/kinoscout/movie-bot/internal/channel"
	"github.com/kinoscout/movie-bot/internal/channel/telegram"
	"github.com/kinoscout/movie-bot/internal/channel/vk"
	"github.com/kinoscout/movie-bot/internal/domain"
	"github.com/kinoscout/movie-bot/internal/flows"
	"github.com/kinoscout/movie-bot/internal/health"
	"github.com/kinoscout/movie-bot/internal/i18n"
	"github.com/kinoscout/movie-bot/internal/idempotency"
	"github.com/kinoscout/movie-bot/internal/kinopoisk"
	"github.com/kinoscout/movie-bot/internal/lifecycle"
	"github.com/kinoscout/movie-bot/internal/moviecache"
	"github.com/kinoscout/movie-bot/internal/podcast"
	"github.com/kinoscout/movie-bot/internal/ratelimit"
	"github.com/kinoscout/movie-bot/internal/recommend"
	"github.com/kinoscout/movie-bot/internal/session"
	"github.com/kinoscout/movie-bot/internal/spellcheck"
	"github.com/kinoscout/movie-bot/pkg/config"
	"github.com/kinoscout/movie-bot/pkg/graceful"
	"github.com/kinoscout/movie-bot/pkg/logger"
	"github.com/kinoscout/movie-bot/pkg/metrics"
	redisx "github.com/kinoscout/movie-bot/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "sentry: %v\n", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(cfg.Log)
	log.Info("starting movie bot",
		slog.String("env", cfg.AppEnv),
		slog.String("channel", cfg.Bot.Channel),
		slog.String("session_backend", cfg.Session.Backend))

	config.Watch(v, func(updated *config.Config) {
		log.Info("configuration reloaded", slog.String("log_level", updated.Log.Level))
	}, func(err error) {
		log.Error("config reload rejected", slog.Any("error", err))
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error("movie bot failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("movie bot stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	shutdown := lifecycle.NewShutdown(log)

	var rdb *redisx.Client
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = redisx.New(ctx, cfg.Redis)
		if err != nil {
			if cfg.Session.Backend == "redis" {
				return fmt.Errorf("connect redis: %w", err)
			}
			log.Warn("redis unavailable, using in-memory stores", slog.Any("error", err))
			rdb = nil
		} else {
			shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
		}
	}

	ch, uploader, err := buildChannel(cfg, log)
	if err != nil {
		return err
	}

	mgr, err := i18n.LoadFromDir(cfg.Assets.LocalesDir, "ru")
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}

	dictionary, err := spellcheck.LoadDictionary(cfg.Assets.DictionaryPath)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}

	cat, err := catalog.Load(cfg.Assets.GenresPath, cfg.Assets.MovieTypesPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	kpc := kinopoisk.NewClient(kinopoisk.Config{
		BaseURL: cfg.Kinopoisk.BaseURL,
		APIKey:  cfg.Kinopoisk.APIKey,
		Timeout: cfg.Kinopoisk.Timeout,
	}, log)

	var movies flows.MovieClient = kpc
	var rankerClient recommend.MovieClient = kpc
	if rdb != nil {
		cached := cachedMovies{
			Client: kpc,
			cache:  moviecache.NewCache(rdb.Client, kpc, 0, log),
		}
		movies = cached
		rankerClient = cached
	}

	var pod flows.PodcastClient
	if cfg.Podcast.Enabled {
		pod = podcast.NewClient(podcast.Config{
			AccessToken: cfg.Podcast.AccessToken,
			Community:   cfg.Podcast.Community,
		}, log)
	}

	pacer := recommend.NewRandomPacer(cfg.Recommend.DelayMin, cfg.Recommend.DelayMax)
	ranker := recommend.NewRanker(rankerClient, pacer, log,
		recommend.WithSimilarLimit(cfg.Recommend.SimilarLimit),
		recommend.WithResultLimit(cfg.Recommend.ResultLimit))

	store, memStore := buildSessionStore(cfg, rdb, log)

	errHandler := apperr.NewHandler(log, cfg.Sentry.Enabled)

	t := mgr.Translator("ru")
	deps := &flows.Deps{
		Movies:     movies,
		Staff:      kpc,
		Podcast:    pod,
		Ranker:     ranker,
		Uploader:   uploader,
		Catalog:    cat,
		Dictionary: dictionary,
		T:          t,
		Log:        log,
	}

	opts, sweep := buildGuards(cfg, rdb, log, t)

	b, err := bot.New(ch, store, deps, errHandler, opts, log)
	if err != nil {
		return fmt.Errorf("build bot: %w", err)
	}
	if memStore != nil {
		memStore.OnEvict(b.Stage().ReleaseLock)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("kinopoisk", health.NewHTTPChecker(cfg.Kinopoisk.BaseURL))
	if rdb != nil {
		checker.AddCheck("redis", health.NewRedisChecker(rdb.Client))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", checker.Handler())
	ops := graceful.NewServer(log, cfg.Server.OpsAddr, logger.Middleware(mux), cfg.Server.ShutdownTimeout)

	collector := metrics.NewSessionCollector(b.Stage(), 30*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ops.ListenAndServe(gctx) })
	g.Go(func() error { return b.Run(gctx) })
	g.Go(func() error {
		collector.Run(gctx)
		return nil
	})
	if memStore != nil {
		cleaner := session.NewCleaner(memStore, log, 5*time.Minute)
		g.Go(func() error {
			cleaner.Run(gctx)
			return nil
		})
	}
	if sweep != nil {
		g.Go(func() error {
			sweep(gctx)
			return nil
		})
	}

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown hooks failed", slog.Any("error", err))
	}

	return runErr
}

func buildChannel(cfg *config.Config, log *slog.Logger) (channel.Channel, channel.AttachmentUploader, error) {
	switch cfg.Bot.Channel {
	case "telegram":
		tg, err := telegram.New(telegram.Config{
			Token:   cfg.Bot.Telegram.Token,
			Timeout: cfg.Bot.Telegram.Timeout,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("build telegram channel: %w", err)
		}
		return tg, tg, nil
	default:
		vkc := vk.New(vk.Config{
			Token:        cfg.Bot.VK.Token,
			Confirmation: cfg.Bot.VK.Confirmation,
			Secret:       cfg.Bot.VK.Secret,
			GroupID:      cfg.Bot.VK.GroupID,
			APIVersion:   cfg.Bot.VK.APIVersion,
			Addr:         cfg.Server.Port,
			WebhookPath:  cfg.Server.WebhookPath,
		}, log)
		return vkc, vkc, nil
	}
}

// buildSessionStore returns the configured Store. The second value is
// non-nil only for the memory backend, which needs the cleaner goroutine
// and the eviction hook.
func buildSessionStore(cfg *config.Config, rdb *redisx.Client, log *slog.Logger) (session.Store, *session.MemoryStore) {
	if cfg.Session.Backend == "redis" && rdb != nil {
		return session.NewRedisStore(rdb.Client, log, cfg.Session.TTL), nil
	}

	mem := session.NewMemoryStore(cfg.Session.TTL)
	return mem, mem
}

// buildGuards assembles the dedupe and rate-limit options, Redis-backed
// when available. The returned sweep func, when non-nil, periodically
// compacts the in-memory fallbacks.
func buildGuards(cfg *config.Config, rdb *redisx.Client, log *slog.Logger, t i18n.Translator) (bot.Options, func(context.Context)) {
	var opts bot.Options

	var memLimiter *ratelimit.MemoryLimiter
	var memDeduper *idempotency.MemoryDeduper

	if cfg.Idempotency.Enabled {
		if rdb != nil {
			opts.Deduper = idempotency.NewRedisDeduper(rdb.Client, log)
		} else {
			memDeduper = idempotency.NewMemoryDeduper()
			opts.Deduper = memDeduper
		}
		opts.DedupeTTL = cfg.Idempotency.TTL
	}

	if cfg.RateLimit.Enabled {
		if rdb != nil {
			opts.Limiter = ratelimit.NewRedisLimiter(rdb.Client, log)
		} else {
			memLimiter = ratelimit.NewMemoryLimiter()
			opts.Limiter = memLimiter
		}
		opts.RateLimit = cfg.RateLimit.Limit
		opts.RateLimitWindow = cfg.RateLimit.Window
		opts.RateLimitNotice = t.T("reply.rate_limited")
	}

	if memLimiter == nil && memDeduper == nil {
		return opts, nil
	}

	window := cfg.RateLimit.Window
	sweep := func(ctx context.Context) {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if memLimiter != nil {
					memLimiter.Sweep(2 * window)
				}
				if memDeduper != nil {
					memDeduper.Sweep()
				}
			}
		}
	}
	return opts, sweep
}

// cachedMovies overlays the read-through detail cache onto the API client;
// every other operation goes straight upstream.
type cachedMovies struct {
	*kinopoisk.Client
	cache *moviecache.Cache
}

func (c cachedMovies) GetByID(ctx context.Context, id int) (domain.Movie, error) {
	return c.cache.GetByID(ctx, id)
}
