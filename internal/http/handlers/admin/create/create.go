// Package create реализует административный HTTP-обработчик создания
// пользователя. Запись создается сразу активной и подтвержденной,
// письмо не отправляется.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Request — структура входных данных для создания пользователя.
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Service описывает интерфейс создания пользователя.
type Service interface {
	Create(ctx context.Context, name, email, password, role string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы создания пользователя администратором.
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
// @Summary Создание пользователя
// @Description Создает активного подтвержденного пользователя. Доступно только администраторам.
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.Response "Созданный пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или email уже занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router / [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			log.Error("email already taken", slog.String("email", req.Email))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("user with this email already exists"))
			return
		}
		log.Error("failed to create user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("user created", slog.String("user_uid", user.UID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"user": user}))
}
