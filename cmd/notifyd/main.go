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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenlearn/notify/api"
	"github.com/lumenlearn/notify/notifications"
	"github.com/lumenlearn/notify/notifications/pgstore"
	"github.com/lumenlearn/notify/pkg/config"
	"github.com/lumenlearn/notify/pkg/email"
	"github.com/lumenlearn/notify/pkg/httpserver"
	"github.com/lumenlearn/notify/pkg/jwt"
	"github.com/lumenlearn/notify/pkg/logger"
	"github.com/lumenlearn/notify/pkg/pg"
	"github.com/lumenlearn/notify/pkg/ratelimiter"
	"github.com/lumenlearn/notify/pkg/redis"
	"github.com/lumenlearn/notify/push"
	"github.com/lumenlearn/notify/realtime"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	var log *slog.Logger
	if cfg.development() {
		log = logger.New(logger.WithDevelopment(cfg.ServiceName))
	} else {
		log = logger.New(logger.WithProduction(cfg.ServiceName))
	}
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	storage, healthchecks, err := buildStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := realtime.NewMetrics(registry)

	limiter, err := buildRateLimiter(ctx, cfg)
	if err != nil {
		return err
	}

	hub := realtime.NewHub(
		realtime.WithHubLogger(log),
		realtime.WithHubMetrics(metrics),
	)

	routerOpts := []notifications.RouterOption{
		notifications.WithBroadcaster(hub),
		notifications.WithRouterLogger(log),
	}

	if cfg.PushEnabled {
		var pushCfg push.Config
		config.MustLoad(&pushCfg)
		sender, err := push.NewSender(pushCfg)
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts, notifications.WithPushSender(sender, storage))
	}

	if cfg.EmailEnabled {
		channel, err := buildEmailChannel(cfg)
		if err != nil {
			return err
		}
		routerOpts = append(routerOpts, notifications.WithEmailDeliverer(channel))
	}

	deliveryRouter := notifications.NewRouter(storage, routerOpts...)
	service := notifications.NewService(storage, deliveryRouter,
		notifications.WithServiceLogger(log),
	)

	jwtService, err := jwt.NewFromString(cfg.JWTSigningKey)
	if err != nil {
		return err
	}

	authenticator := realtime.NewJWTAuthenticator(jwtService)

	wsHandler := realtime.NewHandler(hub, storage, authenticator,
		realtime.WithHandlerLogger(log),
		realtime.WithHandlerMetrics(metrics),
		realtime.WithRateLimiter(limiter),
		realtime.WithSettingsInvalidator(deliveryRouter),
	)

	root := chi.NewRouter()
	root.Mount("/", api.Router(api.RouterOptions{
		WebSocket:     wsHandler,
		Devices:       storage,
		Auth:          authenticator,
		Notifier:      service,
		InternalToken: cfg.InternalAPIToken,
		Logger:        log,
	}))
	root.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	root.Get("/healthz", healthHandler(healthchecks))

	var serverCfg httpserver.Config
	config.MustLoad(&serverCfg)
	server := httpserver.NewFromConfig(serverCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(log *slog.Logger) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := hub.Shutdown(shutdownCtx); err != nil {
				log.LogAttrs(shutdownCtx, slog.LevelWarn, "hub shutdown incomplete", logger.Error(err))
			}
		}),
	)

	return server.Run(ctx, root)
}

// buildStorage returns the selected notification store plus the health
// checks of whatever backends it opened.
func buildStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (notifications.CombinedStorage, []func(context.Context) error, error) {
	switch cfg.Storage {
	case "memory":
		return notifications.NewMemoryStorage(), nil, nil

	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, nil, err
		}
		return pgstore.New(pool), []func(context.Context) error{pg.Healthcheck(pool)}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE %q: must be memory or postgres", cfg.Storage)
	}
}

func buildRateLimiter(ctx context.Context, cfg appConfig) (*ratelimiter.Bucket, error) {
	var store ratelimiter.Store
	switch cfg.RateLimitStore {
	case "memory":
		store = ratelimiter.NewMemoryStore()

	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		store, err = ratelimiter.NewRedisStore(client)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown RATE_LIMIT_STORE %q: must be memory or redis", cfg.RateLimitStore)
	}

	return ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       cfg.RateLimitPerMinute,
		RefillRate:     cfg.RateLimitPerMinute,
		RefillInterval: time.Minute,
	})
}

func buildEmailChannel(cfg appConfig) (*notifications.EmailChannel, error) {
	resolver, err := newEmailResolver(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.development() {
		return notifications.NewEmailChannel(email.NewDevSender(cfg.EmailDevDir), resolver)
	}

	var emailCfg email.Config
	config.MustLoad(&emailCfg)
	sender, err := email.NewPostmarkClient(emailCfg)
	if err != nil {
		return nil, err
	}
	return notifications.NewEmailChannel(sender, resolver)
}

func healthHandler(checks []func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
