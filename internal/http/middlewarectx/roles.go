package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
)

// RequireRole возвращает middleware, ограничивающий доступ перечисленными ролями.
// Применяется после JWTMiddleware: роль берётся из контекста запроса.
func RequireRole(log *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			role, ok := r.Context().Value(Role).(string)
			if !ok || role == "" {
				log.Error("role missing in request context")
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("you do not have permission to perform this action"))
				return
			}

			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.Error("access denied for role", slog.String("role", role))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("you do not have permission to perform this action"))
		})
	}
}
