// Package getself реализует HTTP-обработчик чтения собственного профиля.
package getself

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// Service описывает интерфейс чтения профиля.
type Service interface {
	GetByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы чтения собственного профиля.
type Handler struct {
	log   *slog.Logger
	users Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{log: log, users: users}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает данные текущего аутентифицированного пользователя.
// @Tags Users
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /self [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.getself"

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

	user, err := h.users.GetByUID(r.Context(), userUID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"user": user}))
}
