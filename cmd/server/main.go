package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/config"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/server"
	"github.com/ayush/feed-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogDir, "feed-api", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database(cfg.MongoDB)
	if err := store.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}
	posts := store.NewMongoPostStore(mongoDB)

	// ── Credential store ─────────────────────────────────────
	var users server.UserStore
	switch cfg.UserStore {
	case "postgres":
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("postgres connect: %v", err)
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}
		users = pgStore
	default:
		users = store.NewMongoUserStore(mongoDB)
	}
	log.Infof("credential store: %s", cfg.UserStore)

	// ── Redis ────────────────────────────────────────────────
	var revocations server.Revocations
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		revocations = auth.NewRevocationStore(rdb)
	} else {
		log.Warn("REDIS_ADDR not set; logout will not revoke tokens")
	}

	// ── Image store ──────────────────────────────────────────
	images, err := openImageStore(ctx, cfg)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}
	log.Infof("image store: %s", cfg.ImageStore)

	// ── Router ───────────────────────────────────────────────
	handler := server.NewRouter(server.Deps{
		Users:          users,
		Posts:          posts,
		Images:         images,
		Tokens:         auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Hasher:         auth.NewBcryptHasher(),
		Revocations:    revocations,
		Log:            log,
		FeedPageSize:   cfg.FeedPageSize,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	go func() {
		log.Infof("feed-api listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func openImageStore(ctx context.Context, cfg *config.Config) (server.ImageStore, error) {
	switch cfg.ImageStore {
	case "minio":
		return store.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	case "s3":
		return store.NewS3Store(ctx, cfg.AWSRegion, cfg.AWSBucket,
			cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	default:
		return store.NewDiskStore(cfg.ImageDir)
	}
}
