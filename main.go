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

	"foodgram/api"
	"foodgram/auth"
	"foodgram/config"
	"foodgram/export"
	"foodgram/ingredientsLoader"
	"foodgram/logging"
	"foodgram/media"
	"foodgram/media/filesystemStore"
	mediaMemory "foodgram/media/memoryStore"
	"foodgram/media/s3"
	"foodgram/orm"
	"foodgram/recipes"

	enclaveConfig "github.com/EnclaveRunner/shareddeps/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const version = "v0.1.0"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	if err := enclaveConfig.PopulateAppConfig(
		config.Cfg, "foodgram", version, config.Defaults...,
	); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(config.Cfg.Logging.Level, config.Cfg.Logging.Format, os.Stderr)

	db := orm.InitDB(config.Cfg)
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "load-ingredients":
			loadIngredients(db, os.Args[2:])
			return
		case "serve":
		default:
			log.Fatal().Msgf("unknown command '%s', expected serve or load-ingredients", os.Args[1])
		}
	}

	serve(db)
}

func loadIngredients(db *orm.DB, args []string) {
	path := "data/ingredients.csv"
	if len(args) > 0 {
		path = args[0]
	}

	report, err := ingredientsLoader.LoadFile(context.Background(), path, db)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("failed to load ingredients")
	}

	fmt.Printf("Total: %d rows. Loaded: %d rows. Failed: %d rows.\n", report.Total, report.Loaded, report.Failed)
}

func serve(db *orm.DB) {
	tokenTTL, err := time.ParseDuration(config.Cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Str("token_ttl", config.Cfg.Auth.TokenTTL).Msg("invalid token ttl")
	}

	tokens, err := auth.NewIssuer(config.Cfg.Auth.JWTSecret, tokenTTL, initRevocationStore())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token issuer")
	}

	images := initializeImageStore()
	service := recipes.New(db, images, tokens, recipes.Settings{
		MediaURL: config.Cfg.MediaURL,
		Images: media.Normalizer{
			MaxWidth:  config.Cfg.Images.MaxWidth,
			MaxHeight: config.Cfg.Images.MaxHeight,
			MaxBytes:  config.Cfg.Images.MaxBytes,
			MaxPixels: config.Cfg.Images.MaxPixels,
		},
	})

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(service, images, api.Options{
		PageSize:  config.Cfg.PageSize,
		RateLimit: config.Cfg.HTTP.RateLimit,
		RateBurst: config.Cfg.HTTP.RateBurst,
		Export:    export.Renderer{SiteURL: config.Cfg.SiteURL},
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Cfg.Port),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Int("port", config.Cfg.Port).Str("version", version).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func initRevocationStore() auth.RevocationStore {
	if config.Cfg.Redis.Addr == "" {
		log.Info().Msg("no redis address configured, revoked tokens are kept in memory")

		return auth.NewMemoryRevocations()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Cfg.Redis.Addr,
		Password: config.Cfg.Redis.Password,
		DB:       config.Cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", config.Cfg.Redis.Addr).Msg("failed to connect to redis")
	}
	log.Info().Str("addr", config.Cfg.Redis.Addr).Msg("redis token revocation initialized")

	return auth.NewRedisRevocations(client)
}

func initializeImageStore() media.Store {
	var store media.Store
	switch config.Cfg.Persistence.Type {
	case "filesystem":
		store = initFilesystemStore()
	case "s3":
		store = initS3Store()
	case "memory":
		log.Warn().Msg("images are kept in memory and lost on restart")
		store = mediaMemory.New()
	default:
		log.Warn().Msgf("unknown persistence type '%s', defaulting to filesystem", config.Cfg.Persistence.Type)
		store = initFilesystemStore()
	}

	return store
}

func initFilesystemStore() media.Store {
	storageDir := filesystemStore.StorageDir(config.Cfg.Persistence.StorageDir)
	fsStore, err := filesystemStore.New(storageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize filesystem image store")
	}
	log.Info().
		Str("storage_dir", storageDir).
		Msg("filesystem image store initialized")

	return fsStore
}

func initS3Store() media.Store {
	s3Store, err := s3.New(config.Cfg.Persistence.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize s3 image store")
	}
	log.Info().
		Str("bucket", config.Cfg.Persistence.S3.Bucket).
		Msg("s3 image store initialized")

	return s3Store
}
