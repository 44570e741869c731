package main

import (
	"flag"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/serverlesskit/ratelimit/internal/config"
	"github.com/serverlesskit/ratelimit/internal/log"
	"github.com/serverlesskit/ratelimit/pkg/httplimit"
	"github.com/serverlesskit/ratelimit/ratelimit"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Logger().Fatal("failed to load configuration", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	limiter, err := buildLimiter(cfg.Limiter, ratelimit.NewRedisStore(redisClient))
	if err != nil {
		log.Logger().Fatal("failed to build limiter", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello, World!"))
	})

	wrapped := httplimit.NewHandler(mux, limiter,
		httplimit.NewHeaderExtractor(cfg.HeaderKeys...))

	log.Logger().Info("serving",
		zap.String("listen", cfg.Listen),
		zap.String("algorithm", cfg.Limiter.Algorithm))
	if err := http.ListenAndServe(cfg.Listen, wrapped); err != nil {
		log.Logger().Fatal("failed to serve handler", zap.Error(err))
	}
}

func buildLimiter(cfg config.Limiter, store ratelimit.Store) (*ratelimit.Limiter, error) {
	opts := []ratelimit.Option{ratelimit.WithPrefix(cfg.Prefix)}

	switch cfg.Algorithm {
	case config.AlgorithmFixedWindow:
		return ratelimit.NewFixedWindow(store, cfg.MaxRequests, cfg.Window, opts...)
	case config.AlgorithmSlidingWindow:
		return ratelimit.NewSlidingWindow(store, cfg.MaxRequests, cfg.Window, opts...)
	default:
		return ratelimit.NewTokenBucket(store, cfg.MaxTokens, cfg.RefillRate, cfg.Interval, opts...)
	}
}
