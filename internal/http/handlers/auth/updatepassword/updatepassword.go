// Package updatepassword реализует HTTP-обработчик смены пароля
// аутентифицированным пользователем. Требуется текущий пароль; после
// смены все ранее выпущенные сессионные токены становятся недействительны,
// в ответе выдается свежий JWT.
package updatepassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

// Request — структура входных данных для смены пароля.
type Request struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Service описывает интерфейс бизнес-логики смены пароля.
type Service interface {
	UpdatePassword(ctx context.Context, userUID, currentPassword, newPassword string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы смены пароля.
type Handler struct {
	log      *slog.Logger
	auth     Service
	tokenTTL time.Duration
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth Service, tokenTTL time.Duration) *Handler {
	return &Handler{
		log:      log,
		auth:     auth,
		tokenTTL: tokenTTL,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Смена пароля
// @Description Меняет пароль текущего пользователя после проверки действующего и выпускает новый JWT.
// @Tags Auth
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body Request true "Текущий и новый пароль"
// @Success 200 {object} response.Response "Пароль изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Текущий пароль неверен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /password/update [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.updatepassword"

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

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	token, user, err := h.auth.UpdatePassword(r.Context(), userUID, req.PasswordCurrent, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Error("current password mismatch", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("your current password is wrong"))
			return
		}
		log.Error("password update failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("password updated", slog.String("user_uid", user.UID))
	response.SetSessionCookie(w, r, token, h.tokenTTL)
	render.JSON(w, r, response.OKWithToken(token, user))
}
