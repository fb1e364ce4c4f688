package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wastewise/internal/api"
	"wastewise/internal/app/service"
	"wastewise/internal/common/security"
	"wastewise/internal/domain/repository"
	"wastewise/internal/platform/cache"
	"wastewise/internal/platform/config"
	"wastewise/internal/platform/database"
	"wastewise/internal/platform/logger"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log := logger.InitLogger()
	log.Info().Msg("configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	log.Info().Msg("database connected")

	ctx := context.Background()
	if err := database.Migrate(ctx, database.DB); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	log.Info().Msg("redis connected")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	requestRepo := repository.NewPgRequestRepository(database.DB)
	rewardRepo := repository.NewPgRewardRepository(database.DB)
	reportRepo := repository.NewPgReportRepository(database.DB)

	// 6. Initialize Services
	userDirectory := cache.NewUserDirectory(cache.RDB, log)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo, userDirectory, log)
	requestService := service.NewRequestService(requestRepo, userRepo, log)
	rewardService := service.NewRewardService(rewardRepo, log)
	reportService := service.NewReportService(reportRepo)

	// 7. Seed the bootstrap ministry account
	if err := userService.SeedMinistryAccount(ctx,
		config.AppConfig.SeedAdminUsername,
		config.AppConfig.SeedAdminFullName,
		config.AppConfig.SeedAdminPassword,
	); err != nil {
		log.Fatal().Err(err).Msg("ministry account seeding failed")
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(log, authService, userService, requestService, rewardService, reportService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", config.AppConfig.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stop

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
