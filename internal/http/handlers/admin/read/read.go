// Package read реализует административный HTTP-обработчик чтения
// пользователя по UID.
package read

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
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Service описывает интерфейс чтения пользователя.
type Service interface {
	GetByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы чтения пользователя.
type Handler struct {
	log   *slog.Logger
	users Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{log: log, users: users}
}

// ServeHTTP godoc
// @Summary Пользователь по UID
// @Description Возвращает активного пользователя по UID. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Success 200 {object} response.Response "Пользователь"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")

	user, err := h.users.GetByUID(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no user found with that id"))
			return
		}
		log.Error("failed to load user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"user": user}))
}
