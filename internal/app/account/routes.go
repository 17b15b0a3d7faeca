// Package account предоставляет маршруты сервиса учетных записей.
package account

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/account-service/internal/config"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/admin/create"
	adminlist "github.com/magabrotheeeer/account-service/internal/http/handlers/admin/list"
	adminread "github.com/magabrotheeeer/account-service/internal/http/handlers/admin/read"
	adminremove "github.com/magabrotheeeer/account-service/internal/http/handlers/admin/remove"
	adminupdate "github.com/magabrotheeeer/account-service/internal/http/handlers/admin/update"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/resendverification"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/updatepassword"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/auth/verifyemail"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/user/deleteself"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/user/getself"
	"github.com/magabrotheeeer/account-service/internal/http/handlers/user/updateself"
	"github.com/magabrotheeeer/account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/models"
	authservice "github.com/magabrotheeeer/account-service/internal/services/auth"
	userservice "github.com/magabrotheeeer/account-service/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, authService *authservice.AuthService, userService *userservice.UserService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	tokenTTL := cfg.TokenTTL

	r.Route("/api/v1/users", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/sign-up", signup.New(logger, authService, cfg.IsProd()).ServeHTTP)
			r.Post("/login", login.New(logger, authService, tokenTTL).ServeHTTP)
			r.Get("/logout", logout.New(logger).ServeHTTP)
			r.Post("/password/forgot", forgotpassword.New(logger, authService, cfg.IsProd()).ServeHTTP)
			r.Patch("/password/reset/{token}", resetpassword.New(logger, authService, tokenTTL).ServeHTTP)
			r.Patch("/email/verify/{token}", verifyemail.New(logger, authService, tokenTTL).ServeHTTP)
			r.Patch("/email/resend", resendverification.New(logger, authService, cfg.IsProd()).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Patch("/password/update", updatepassword.New(logger, authService, tokenTTL).ServeHTTP)
			r.Get("/self", getself.New(logger, userService).ServeHTTP)
			r.Patch("/update/self", updateself.New(logger, userService).ServeHTTP)
			r.Delete("/delete/self", deleteself.New(logger, userService).ServeHTTP)
		})

		// Административная группа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
			r.Get("/", adminlist.New(logger, userService).ServeHTTP)
			r.Post("/", create.New(logger, userService).ServeHTTP)
			r.Get("/{uid}", adminread.New(logger, userService).ServeHTTP)
			r.Patch("/{uid}", adminupdate.New(logger, userService).ServeHTTP)
			r.Delete("/{uid}", adminremove.New(logger, userService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
