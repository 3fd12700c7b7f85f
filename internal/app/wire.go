package app

import (
	"log/slog"
	"strings"
	"time"

	"github.com/campuspoints/platform/internal/auth"
	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/guard"
	"github.com/campuspoints/platform/internal/handler"
	"github.com/campuspoints/platform/internal/ledger"
	"github.com/campuspoints/platform/internal/promotion"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/campuspoints/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
	// Comma-separated list of allowed CORS origins.
	CORSAllowedOrigins string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	userRepo := repository.NewUserRepository()
	txRepo := repository.NewTransactionRepository()
	promoRepo := repository.NewPromotionRepository()
	eventRepo := repository.NewEventRepository()
	outboxRepo := repository.NewOutboxRepository()
	authUserRepo := repository.NewPgAuthUserRepository()

	// Ledger engine
	resolver := promotion.NewResolver(promoRepo, nil)
	engine := ledger.NewEngine(userRepo, txRepo, promoRepo, eventRepo, outboxRepo, resolver)

	// Services
	ledgerSvc := service.NewLedgerService(pool, engine, txRepo, logger)
	authSvc := service.NewAuthService(pool, authUserRepo, userRepo, jwtMgr)

	// Guards
	loginLimiter := guard.NewRateLimiter(100, time.Minute)
	postingDedup := guard.NewIdempotencyGuard()

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	pointsHandler := handler.NewPointsHandler(ledgerSvc, userRepo, txRepo, pool)
	promoHandler := handler.NewPromotionHandler(promoRepo, pool)
	eventHandler := handler.NewEventHandler(ledgerSvc, eventRepo, pool)
	userHandler := handler.NewUserHandler(userRepo, pool)

	r := chi.NewRouter()

	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(deps.CORSAllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Auth routes (no auth, rate limited per client)
	r.Route("/auth", func(r chi.Router) {
		r.Use(handler.RateLimit(loginLimiter))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(jwtMgr))

		r.Route("/points", func(r chi.Router) {
			r.Get("/balance", pointsHandler.GetBalance)
			r.Get("/transactions", pointsHandler.GetTransactions)
			r.Post("/transfers", pointsHandler.CreateTransfer)
			r.Post("/redemptions", pointsHandler.CreateRedemption)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleCashier))
				r.Use(handler.Idempotency(postingDedup))
				r.Post("/purchases", pointsHandler.CreatePurchase)
				r.Post("/redemptions/{transactionID}/process", pointsHandler.ProcessRedemption)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleManager))
				r.Post("/adjustments", pointsHandler.CreateAdjustment)
			})
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleManager))
			r.Patch("/{transactionID}/suspicious", pointsHandler.ToggleSuspicious)
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", promoHandler.List)
			r.Get("/{promotionID}", promoHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleManager))
				r.Post("/", promoHandler.Create)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/{eventID}", eventHandler.Get)
			r.Post("/{eventID}/guests", eventHandler.AddGuest)
			r.Post("/{eventID}/awards", eventHandler.Award)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleManager))
				r.Post("/", eventHandler.Create)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleManager))
			r.Get("/{userID}", userHandler.Get)
			r.Patch("/{userID}/flags", userHandler.SetFlags)
			r.Get("/{userID}/transactions", pointsHandler.GetUserTransactions)
			r.Get("/{userID}/audit", pointsHandler.AuditUser)
		})
	})

	return r
}
