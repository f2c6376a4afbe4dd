package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"familytree_go/internal/handler"
	"familytree_go/internal/repository"
	"familytree_go/internal/service"
	"familytree_go/internal/store"
)

func main() {
	cfg := service.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	var memberStore store.MemberStore
	if cfg.RedisAddr != "" {
		redisStore := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AppID, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			cancel()
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		defer redisStore.Close()
		memberStore = redisStore
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory member store")
		memberStore = store.NewMemoryStore()
	}

	uploadService, err := service.NewUploadService(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		logger.Fatal("failed to initialize upload service", zap.Error(err))
	}

	metrics := service.NewMetrics()
	authService := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenDuration)
	familyService := service.NewFamilyService(memberStore, logger, metrics, cfg.LoadTimeout)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(authService, familyService, uploadService, cfg.LoadTimeout, logger)

	logger.Info("server is running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
