// Package deleteself реализует HTTP-обработчик мягкого удаления
// собственной учетной записи. Запись помечается неактивной и исчезает
// из всех выборок, но данные в базе сохраняются.
package deleteself

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Service описывает интерфейс деактивации учетной записи.
type Service interface {
	DeactivateSelf(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы удаления собственной учетной записи.
type Handler struct {
	log   *slog.Logger
	users Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{log: log, users: users}
}

// ServeHTTP godoc
// @Summary Удаление своей учетной записи
// @Description Помечает учетную запись текущего пользователя неактивной.
// @Tags Users
// @Security BearerAuth
// @Success 204 "Учетная запись деактивирована"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /delete/self [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.deleteself"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("you are not logged in"))
		return
	}

	if err := h.users.DeactivateSelf(r.Context(), userUID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("deactivation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("user deactivated", slog.String("user_uid", userUID))
	w.WriteHeader(http.StatusNoContent)
}
