// Package list реализует административный HTTP-обработчик постраничного
// списка активных пользователей.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service описывает интерфейс списка пользователей.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Handler обрабатывает HTTP-запросы списка пользователей.
type Handler struct {
	log   *slog.Logger
	users Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{log: log, users: users}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Возвращает страницу активных пользователей. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Размер страницы (по умолчанию 50, максимум 200)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Страница пользователей"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router / [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"results": len(users),
		"users":   users,
	}))
}
