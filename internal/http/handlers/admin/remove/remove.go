// Package remove реализует административный HTTP-обработчик мягкого
// удаления пользователя по UID.
package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Service описывает интерфейс удаления пользователя.
type Service interface {
	Delete(ctx context.Context, userUID string) error
}

// Handler обрабатывает HTTP-запросы удаления пользователя.
type Handler struct {
	log   *slog.Logger
	users Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{log: log, users: users}
}

// ServeHTTP godoc
// @Summary Удаление пользователя
// @Description Помечает пользователя неактивным. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Param uid path string true "UID пользователя"
// @Success 204 "Пользователь деактивирован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")

	if err := h.users.Delete(r.Context(), userUID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no user found with that id"))
			return
		}
		log.Error("failed to delete user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("user deactivated", slog.String("user_uid", userUID))
	w.WriteHeader(http.StatusNoContent)
}
