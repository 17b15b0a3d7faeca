// Package update реализует административный HTTP-обработчик обновления
// пользователя: имя, email и роль. Пароль через этот маршрут не меняется.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Request — структура входных данных обновления пользователя.
// Пустые поля оставляют прежние значения.
type Request struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Service описывает интерфейс административного обновления пользователя.
type Service interface {
	Update(ctx context.Context, userUID, name, email, role string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы обновления пользователя.
type Handler struct {
	log      *slog.Logger
	users    Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users Service) *Handler {
	return &Handler{
		log:      log,
		users:    users,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление пользователя
// @Description Обновляет имя, email и роль пользователя. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body Request true "Поля для обновления"
// @Success 200 {object} response.Response "Обновленный пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или email уже занят"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{uid} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.users.Update(r.Context(), userUID, req.Name, req.Email, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("no user found with that id"))
			return
		}
		if errors.Is(err, services.ErrEmailTaken) {
			log.Error("email already taken", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("user with this email already exists"))
			return
		}
		log.Error("failed to update user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("user updated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{"user": user}))
}
