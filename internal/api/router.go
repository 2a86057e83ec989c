package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/authentiscan/identity-service/internal/api/handler"
	"github.com/authentiscan/identity-service/internal/api/middleware"
	"github.com/authentiscan/identity-service/internal/core/auth"
	"github.com/authentiscan/identity-service/internal/core/ports"
	"github.com/authentiscan/identity-service/internal/core/service"
	mongorepo "github.com/authentiscan/identity-service/internal/infrastructure/db/mongo"
	healthhandlers "github.com/authentiscan/identity-service/internal/infrastructure/http/handlers"
	"github.com/authentiscan/identity-service/internal/pkg/config"
	"github.com/authentiscan/identity-service/pkg/logger"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, mailq ports.MailQueue) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.Get())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	users := mongorepo.NewUserRepository(db)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	otps := auth.NewOTPGenerator()
	credentials := service.NewCredentialService(users, hasher, tokens, otps, mailq, logger.Get())

	cookies := handler.CookieOptions{
		Secure:   cfg.Production(),
		SameSite: sameSitePolicy(cfg),
		MaxAge:   tokens.TTL(),
	}
	authHandler := handler.NewAuthHandler(credentials, cookies)
	userHandler := handler.NewUserHandler(credentials)
	session := middleware.Session(tokens)

	// --- Auth routes ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.POST("/send-verify-otp", authHandler.SendVerifyOTP, session)
	authGroup.POST("/verify-account", authHandler.VerifyAccount, session)
	authGroup.GET("/is-auth", authHandler.IsAuth, session)
	authGroup.POST("/send-reset-otp", authHandler.SendResetOTP)
	authGroup.POST("/reset-password", authHandler.ResetPassword)

	// --- User routes ---
	e.GET("/api/user/data", userHandler.Data, session)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	healthDepsHandler := healthhandlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}

// sameSitePolicy picks the cookie policy for the environment: None for
// cross-site production frontends, Strict everywhere else.
func sameSitePolicy(cfg *config.Config) http.SameSite {
	if cfg.Production() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}
