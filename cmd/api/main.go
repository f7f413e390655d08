package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/stillmind-app/checkin-engine/internal/adapters/cache"
	adapterHTTP "github.com/stillmind-app/checkin-engine/internal/adapters/handler/http"
	"github.com/stillmind-app/checkin-engine/internal/adapters/handler/http/middleware"
	"github.com/stillmind-app/checkin-engine/internal/adapters/repository"
	"github.com/stillmind-app/checkin-engine/internal/core/domain"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
	"github.com/stillmind-app/checkin-engine/internal/core/workers"
	"github.com/stillmind-app/checkin-engine/internal/logging"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	_ = godotenv.Load()

	logger := logging.Init(envOr("LOG_LEVEL", "info"), os.Getenv("LOG_PATH"))
	defer logger.Sync()

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	serverPort := envOr("PORT", "8080")

	identitySecret := os.Getenv("IDENTITY_SECRET")
	if identitySecret == "" {
		logger.Fatal("IDENTITY_SECRET is required to verify identity-provider tokens")
	}
	identityIssuer := envOr("IDENTITY_ISSUER", "stillmind-identity")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	logger.Info("connecting to database", zap.String("host", dbHost), zap.String("port", dbPort))

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	checkinRepo := repository.NewPostgresCheckinRepository(db)
	reflectionRepo := repository.NewPostgresReflectionRepository(db)
	statsRepo := repository.NewPostgresStatsRepository(db)

	var rankingRepo domain.RankingRepository = repository.NewPostgresRankingRepository(db)

	rdb, err := cache.NewRedisClient(
		envOr("REDIS_HOST", "localhost"),
		envOr("REDIS_PORT", "6379"),
		os.Getenv("REDIS_PASSWORD"),
		0,
	)
	if err != nil {
		logger.Warn("redis unavailable, leaderboard cache and rate limiting disabled", zap.Error(err))
		rdb = nil
	} else {
		rankingRepo = repository.NewCachedRankingRepository(rankingRepo, rdb, logger)
	}

	repairWorker := workers.NewRepairWorker(checkinRepo, statsRepo, rankingRepo, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	repairWorker.Start(workerCtx)

	checkinService := services.NewCheckinService(checkinRepo, statsRepo, rankingRepo, repairWorker, logger)
	statsService := services.NewStatsService(statsRepo, checkinRepo)
	rankingService := services.NewRankingService(rankingRepo)
	reflectionService := services.NewReflectionService(reflectionRepo, checkinRepo, logger)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		CheckinHandler:    adapterHTTP.NewCheckinHandler(checkinService),
		StatsHandler:      adapterHTTP.NewStatsHandler(statsService),
		RankingHandler:    adapterHTTP.NewRankingHandler(rankingService),
		ReflectionHandler: adapterHTTP.NewReflectionHandler(reflectionService),
		IdentityVerifier:  middleware.NewIdentityVerifier(identitySecret, identityIssuer),
		DB:                db,
		Redis:             rdb,
		StartTime:         startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("check-in engine running", zap.String("port", serverPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("stop signal received, shutting down")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}
