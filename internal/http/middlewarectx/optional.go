package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/account-service/internal/lib/sl"
)

// OptionalAuth возвращает middleware для страниц с необязательной
// персонализацией: сессия разрешается так же, как в JWTMiddleware, но любая
// ошибка (отсутствующий токен, неверная подпись, смена пароля) приводит
// к продолжению запроса как анонимного, а не к отказу. Не предназначен
// для API-маршрутов.
func OptionalAuth(auth SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OptionalAuth"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.ResolveSession(r.Context(), tokenStr)
			if err != nil {
				log.Debug("session not resolved, continuing as anonymous", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			ctx = context.WithValue(ctx, UserUID, user.UID)
			ctx = context.WithValue(ctx, Role, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
