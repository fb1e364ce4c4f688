package api

import (
	"net/http"
	"time"
	"wastewise/internal/api/handler"
	apimw "wastewise/internal/api/middleware"
	"wastewise/internal/app/service"
	"wastewise/internal/common/security"
	"wastewise/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func NewRouter(
	logger zerolog.Logger,
	authService *service.AuthService,
	userService *service.UserService,
	requestService *service.RequestService,
	rewardService *service.RewardService,
	reportService *service.ReportService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(apimw.RequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(apimw.SecurityHeaders)
	r.Use(apimw.RateLimit(config.AppConfig.RateLimitPerSecond, config.AppConfig.RateLimitBurst))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler)

	// Verifies the Bearer token when present and puts claims in context; the
	// Authenticator middleware on protected subtrees enforces it.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(public chi.Router) {
			authHandler.RegisterRoutes(public)
		})

		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", userHandler.RegisterRoutes)

		requestHandler := handler.NewRequestHandler(requestService)
		v1.Route("/requests", requestHandler.RegisterRoutes)

		rewardHandler := handler.NewRewardHandler(rewardService)
		v1.Route("/rewards", rewardHandler.RegisterRoutes)

		reportHandler := handler.NewReportHandler(reportService)
		v1.Route("/reports", reportHandler.RegisterRoutes)
	})

	return r
}
