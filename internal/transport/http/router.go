package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/vehicle-market-api/internal/application/auth"
	"github.com/vehicle-market-api/internal/application/user"
	"github.com/vehicle-market-api/internal/application/vehicle"
	"github.com/vehicle-market-api/internal/config"
	"github.com/vehicle-market-api/internal/transport/http/handler"
	appmiddleware "github.com/vehicle-market-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router. ctx bounds the lifetime
// of background sweepers started by middleware.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10, on unauthenticated credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies)

	authSvc := auth.NewService(authDeps(deps))
	userSvc := user.NewService(userDeps(deps))
	vehicleSvc := vehicle.NewService(vehicle.ServiceDeps{
		VehicleRepo: deps.VehicleRepo,
		OpinionRepo: deps.OpinionRepo,
		UserRepo:    deps.UserRepo,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, userSvc)
	resetH := handler.NewPasswordResetHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	vehicleH := handler.NewVehicleHandler(vehicleSvc)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health", healthH.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(sensitiveRL.Limit)
				r.Post("/login", authH.Login)
				r.Post("/register", authH.Register)
				r.Post("/google", authH.Google)
				r.Post("/forgot-password", resetH.Forgot)
				r.Post("/reset-password", resetH.Reset)
				r.Get("/reset-password", resetH.Check)
			})
			r.With(authMw).Get("/me", authH.Me)
		})

		r.Get("/brands", vehicleH.Brands)
		r.Get("/categories", vehicleH.Categories)
		r.Get("/models", vehicleH.Models)
		r.Get("/versions", vehicleH.Versions)
		r.Route("/vehicles", func(r chi.Router) {
			r.Get("/", vehicleH.List)
			r.Get("/compare", vehicleH.Compare)
			r.Get("/search", vehicleH.Search)
			r.Post("/advanced-search", vehicleH.AdvancedSearch)
			r.Get("/{id}", vehicleH.Get)
			r.Get("/{id}/opinions", vehicleH.ListOpinions)
			r.With(authMw).Post("/{id}/opinions", vehicleH.SaveOpinion)
			r.With(authMw).Delete("/{id}/opinions/{opinionId}", vehicleH.DeleteOpinion)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Put("/users/{id}/photo", userH.UpdatePhoto)
			r.Get("/users/{id}/favorites", userH.ListFavorites)
			r.Post("/users/{id}/favorites", userH.AddFavorite)
			r.Delete("/users/{id}/favorites/{vehicleId}", userH.RemoveFavorite)
			r.Get("/users/{id}/comparisons", userH.ListComparisons)
			r.Post("/users/{id}/comparisons", userH.CreateComparison)
			r.Delete("/users/{id}/comparisons/{comparisonId}", userH.DeleteComparison)
			r.Get("/users/{id}/preferences", userH.ListPreferences)
			r.Post("/users/{id}/preferences", userH.CreatePreference)
			r.Patch("/users/{id}/preferences/{preferenceId}", userH.UpdatePreference)
			r.Delete("/users/{id}/preferences/{preferenceId}", userH.DeletePreference)
		})
	})

	return r
}

// authDeps assigns optional collaborators only when present so the service sees
// a nil interface rather than a typed nil pointer.
func authDeps(deps *Deps) auth.ServiceDeps {
	d := auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		Mailer:           deps.Mailer,
		JWTProvider:      deps.JWTProvider,
	}
	if deps.Google != nil {
		d.Google = deps.Google
	}
	if deps.S3Store != nil {
		d.Photos = deps.S3Store
	}
	if deps.Events != nil {
		d.Events = deps.Events
	}
	l := deps.limiters()
	if l.login != nil {
		d.LoginLimiter = l.login
		d.ResetLimiter = l.forgot
		d.ResetCheckLimiter = l.resetCheck
	}
	return d
}

func userDeps(deps *Deps) user.ServiceDeps {
	d := user.ServiceDeps{
		UserRepo:       deps.UserRepo,
		FavoriteRepo:   deps.FavoriteRepo,
		ComparisonRepo: deps.ComparisonRepo,
		PreferenceRepo: deps.PreferenceRepo,
		VehicleRepo:    deps.VehicleRepo,
	}
	if deps.S3Store != nil {
		d.Photos = deps.S3Store
	}
	return d
}
