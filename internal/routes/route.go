package routes

import (
	"net/http"

	"maraude-bknd/internal/auth"
	"maraude-bknd/internal/config"
	"maraude-bknd/internal/handlers"
	"maraude-bknd/internal/logger"
	"maraude-bknd/internal/mail"
	mdlwr "maraude-bknd/internal/middleware"
	"maraude-bknd/internal/models"
	"maraude-bknd/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

func NewRouter(db *bun.DB, cfg *config.Config, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// init JWT manager
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, "maraude-bknd")
	if err != nil {
		logr.Fatal("failed to init jwt manager", zap.Error(err))
	}

	// services
	authSvc := services.NewAuthService(db, jwtMgr, cfg, logr)
	maraudeSvc := services.NewMaraudeService(db)
	merchantSvc := services.NewMerchantService(db)
	assocSvc := services.NewAssociationService(db)
	reportSvc := services.NewReportService(db, mail.NewSMTPSender(cfg))
	geocodeSvc := services.NewGeocodeService(cfg, logr)
	mapSvc := services.NewMapDataService(db, maraudeSvc, merchantSvc)

	authMW := mdlwr.NewAuthMiddleware(jwtMgr.PublicKey(), authSvc, logr.Logger)

	authHandler := handlers.NewAuthHandler(authSvc, logr, cfg)
	maraudeHandler := handlers.NewMaraudeHandler(maraudeSvc, logr.Logger)
	merchantHandler := handlers.NewMerchantHandler(merchantSvc, logr.Logger)
	assocHandler := handlers.NewAssociationHandler(assocSvc, logr.Logger)
	reportHandler := handlers.NewReportHandler(reportSvc, logr.Logger)
	mapHandler := handlers.NewMapDataHandler(mapSvc, geocodeSvc, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(authMW.JWTAuth)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/maraudes", func(r chi.Router) {
			r.Use(authMW.JWTAuth)

			r.Get("/", maraudeHandler.List)
			r.Post("/", maraudeHandler.Create)
			r.Get("/today/active", maraudeHandler.TodayActive)
			r.Get("/weekly-schedule", maraudeHandler.WeeklySchedule)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", maraudeHandler.Get)
				r.Put("/", maraudeHandler.Update)
				r.Delete("/", maraudeHandler.Delete)
				r.Patch("/status", maraudeHandler.UpdateStatus)

				r.Route("/waypoints", func(r chi.Router) {
					r.Post("/", maraudeHandler.AddWaypoint)
					r.Put("/", maraudeHandler.ReplaceWaypoints)
					r.Delete("/{waypointId}", maraudeHandler.RemoveWaypoint)
					r.Patch("/{waypointId}/move", maraudeHandler.MoveWaypoint)
				})
			})
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Use(authMW.JWTAuth)

			r.Get("/", merchantHandler.List)
			r.Get("/nearby/{lat}/{lon}", merchantHandler.Nearby)
			r.Post("/", merchantHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", merchantHandler.Get)
				r.Put("/", merchantHandler.Update)

				// verification and removal are coordination tasks
				r.Group(func(r chi.Router) {
					r.Use(authMW.RequireRole(models.RoleAdmin, models.RoleCoordinator))
					r.Patch("/verify", merchantHandler.SetVerified)
					r.Delete("/", merchantHandler.Delete)
				})
			})
		})

		r.Route("/associations", func(r chi.Router) {
			r.Use(authMW.JWTAuth)

			r.Get("/", assocHandler.List)
			r.Get("/{id}", assocHandler.Get)
			r.Get("/{id}/stats", assocHandler.Stats)

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireRole(models.RoleAdmin))
				r.Post("/", assocHandler.Create)
				r.Put("/{id}", assocHandler.Update)
				r.Delete("/{id}", assocHandler.Deactivate)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(authMW.JWTAuth)

			r.Get("/", reportHandler.List)
			r.Post("/", reportHandler.Create)
			r.Get("/check-duplicate", reportHandler.CheckDuplicate)
			r.Get("/distribution-types", reportHandler.DistributionTypes)
			r.Get("/stats/summary", reportHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reportHandler.Get)
				r.Put("/", reportHandler.Update)
				r.Delete("/", reportHandler.Delete)
				r.Patch("/submit", reportHandler.Submit)
				r.Post("/send-email", reportHandler.SendEmail)

				r.Group(func(r chi.Router) {
					r.Use(authMW.RequireRole(models.RoleAdmin, models.RoleCoordinator))
					r.Patch("/validate", reportHandler.Validate)
				})
			})
		})

		r.Route("/map", func(r chi.Router) {
			r.Use(authMW.JWTAuth)
			r.Get("/features", mapHandler.Features)
		})

		r.Route("/geocode", func(r chi.Router) {
			r.Use(authMW.JWTAuth)
			r.Get("/reverse", mapHandler.ReverseGeocode)
		})
	})

	return r
}
