// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware извлекает токен из заголовка Authorization или из cookie,
// разрешает сессию через сервис аутентификации и в случае успеха добавляет
// в контекст пользователя, его UID и роль для дальнейшего использования
// в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для текущего пользователя (*models.User) в контексте
	User Key = "user"
	// UserUID — ключ для UID пользователя в контексте
	UserUID Key = "user_uid"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// SessionResolver описывает интерфейс сервиса для разрешения сессии по токену.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, error)
}

// TokenFromRequest извлекает сессионный токен из запроса. Заголовок
// Authorization имеет приоритет над cookie.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	cookie, err := r.Cookie(response.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// JWTMiddleware возвращает HTTP middleware, который проверяет сессионный JWT.
//
// Если токен валиден и пользователь активен, добавляет пользователя, его UID
// и роль в контекст запроса, иначе возвращает ошибку с HTTP статусом 401.
func JWTMiddleware(auth SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				log.Error("missing session token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("you are not logged in"))
				return
			}

			user, err := auth.ResolveSession(r.Context(), tokenStr)
			if err != nil {
				unauthorized(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			ctx = context.WithValue(ctx, UserUID, user.UID)
			ctx = context.WithValue(ctx, Role, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var msg string
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		log.Error("token owner no longer exists", sl.Err(err))
		msg = "user belonging to this token no longer exists"
	case errors.Is(err, services.ErrStalePassword):
		log.Error("token issued before password change", sl.Err(err))
		msg = "password was recently changed, please log in again"
	case errors.Is(err, jwt.ErrExpiredToken):
		log.Error("session token expired", sl.Err(err))
		msg = "you are not logged in"
	default:
		log.Error("invalid session token", sl.Err(err))
		msg = "you are not logged in"
	}
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(msg))
}
