package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"listing-backend/internal/config"
	"listing-backend/internal/extract"
	"listing-backend/internal/httpapi"
	"listing-backend/internal/kstream"
	"listing-backend/internal/logger"
	"listing-backend/internal/media"
	"listing-backend/internal/metafields"
	"listing-backend/internal/pipeline"
	"listing-backend/internal/shopify"
	"listing-backend/internal/store"
	"listing-backend/internal/taxonomy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(logger.Config(cfg.Log))
	defer func() { _ = zlog.Sync() }()

	history, err := store.Open(cfg.Database.Path)
	if err != nil {
		zlog.Fatal("opening history store", zap.Error(err))
	}

	uploader, err := media.NewUploader(&media.Config{
		CloudName: cfg.Cloudinary.CloudName,
		APIKey:    cfg.Cloudinary.APIKey,
		APISecret: cfg.Cloudinary.APISecret,
		Timeout:   cfg.Cloudinary.Timeout,
	}, zlog.Named("media"))
	if err != nil {
		zlog.Fatal("building media uploader", zap.Error(err))
	}

	extractor := extract.New(extract.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	}, zlog.Named("extract"))

	shop, err := shopify.NewClient(&shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout,
	}, zlog.Named("shopify"))
	if err != nil {
		zlog.Fatal("building shopify client", zap.Error(err))
	}

	// Collection cache is optional; taxonomy falls back to the collection
	// list API when no Redis address is configured.
	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var events pipeline.EventSink
	if cfg.Kafka.Broker != "" {
		producer := kstream.NewProducer(kstream.Config{
			Broker: cfg.Kafka.Broker,
			Topic:  cfg.Kafka.Topic,
		})
		defer func() { _ = producer.Close() }()
		events = producer
	}

	pipe := pipeline.New(
		history,
		uploader,
		extractor,
		shop,
		taxonomy.NewManager(shop, cache, zlog.Named("taxonomy")),
		metafields.NewAnnotator(shop, cfg.Shopify.MetafieldPause, zlog.Named("metafields")),
		events,
		zlog.Named("pipeline"),
	)

	r := mux.NewRouter()
	httpapi.NewServer(pipe, history, zlog.Named("httpapi")).RegisterRoutes(r)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		zlog.Info("shutting down")
		_ = server.Shutdown(context.Background())
	}()

	zlog.Info("listing API listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server error", zap.Error(err))
	}
}
