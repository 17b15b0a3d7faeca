// Package updateself реализует HTTP-обработчик обновления собственного профиля.
//
// Маршрут меняет только имя, email и фото. Попытка передать поля пароля
// отклоняется: смена пароля идет через отдельный маршрут и инвалидирует
// прежние сессии, чего обновление профиля делать не должно.
package updateself

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/user"
)

// Request — структура входных данных обновления профиля. Пустые поля
// оставляют прежние значения. Поля пароля декодируются только для того,
// чтобы отклонить запрос, который их содержит.
type Request struct {
	Name            string `json:"name" validate:"omitempty,min=2,max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	Photo           string `json:"photo" validate:"omitempty,max=255"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Service описывает интерфейс обновления профиля.
type Service interface {
	UpdateSelf(ctx context.Context, userUID, name, email, photo string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы обновления собственного профиля.
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
// @Summary Обновление профиля
// @Description Обновляет имя, email и фото текущего пользователя. Поля пароля на этом маршруте запрещены.
// @Tags Users
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Поля профиля"
// @Success 200 {object} response.Response "Обновленный профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, поля пароля в теле, ошибка валидации или email уже занят"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /update/self [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.updateself"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if req.Password != "" || req.PasswordConfirm != "" {
		log.Error("password fields rejected on profile route")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("this route is not for password updates, please use /password/update"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.users.UpdateSelf(r.Context(), userUID, req.Name, req.Email, req.Photo)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		if errors.Is(err, services.ErrEmailTaken) {
			log.Error("email already taken", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("user with this email already exists"))
			return
		}
		log.Error("profile update failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("profile updated", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{"user": user}))
}
