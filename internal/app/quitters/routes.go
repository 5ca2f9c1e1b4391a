// Package quitters собирает HTTP-приложение: хранилище, кеш, шину событий,
// сервисы и маршруты.
package quitters

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-документации.
	_ "github.com/magabrotheeeer/quitters/docs"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/create"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/list"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/read"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/remove"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/removebydate"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/setbydate"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/entries/update"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/health"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/users/profile"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/users/stats"
	"github.com/magabrotheeeer/quitters/internal/http/handlers/users/updateprofile"
	"github.com/magabrotheeeer/quitters/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/quitters/internal/services/auth"
	"github.com/magabrotheeeer/quitters/internal/services/tracking"
	"github.com/magabrotheeeer/quitters/internal/services/users"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth     *authservice.Service
	Tracking *tracking.Service
	Users    *users.Service
	DB       health.Pinger
	Limiter  *middlewarectx.RateLimiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, s.Limiter))

			r.Post("/entries", create.New(logger, s.Tracking).ServeHTTP)
			r.Get("/entries/{id}", read.New(logger, s.Tracking).ServeHTTP)
			r.Put("/entries/{id}", update.New(logger, s.Tracking).ServeHTTP)
			r.Delete("/entries/{id}", remove.New(logger, s.Tracking).ServeHTTP)
			r.Put("/entries/date/{date}", setbydate.New(logger, s.Tracking).ServeHTTP)
			r.Delete("/entries/date/{date}", removebydate.New(logger, s.Tracking).ServeHTTP)

			r.Patch("/users/me", updateprofile.New(logger, s.Users).ServeHTTP)
			r.Get("/users/{id}", profile.New(logger, s.Users).ServeHTTP)
			r.Get("/users/{id}/stats", stats.New(logger, s.Users).ServeHTTP)
			r.Get("/users/{id}/entries", list.New(logger, s.Tracking).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
