// Package resetpassword реализует HTTP-обработчик завершения сброса пароля.
//
// Исходный токен берется из пути запроса, новый пароль — из тела. Токен
// одноразовый: успешная смена пароля делает его недействительным, после
// чего выпускается свежий сессионный JWT.
package resetpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

// Request — структура входных данных для установки нового пароля.
type Request struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Service описывает интерфейс бизнес-логики завершения сброса.
type Service interface {
	ResetPassword(ctx context.Context, rawToken, newPassword string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы установки нового пароля по токену сброса.
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
// @Summary Установка нового пароля по токену сброса
// @Description Проверяет одноразовый токен из пути, меняет пароль и выпускает новый JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param token path string true "Токен сброса из письма"
// @Param request body Request true "Новый пароль"
// @Success 200 {object} response.Response "Пароль изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или токен недействителен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /password/reset/{token} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rawToken := chi.URLParam(r, "token")

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

	token, user, err := h.auth.ResetPassword(r.Context(), rawToken, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredToken) {
			log.Error("reset token rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("token is invalid or expired"))
			return
		}
		log.Error("reset password failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("password reset complete", slog.String("user_uid", user.UID))
	response.SetSessionCookie(w, r, token, h.tokenTTL)
	render.JSON(w, r, response.OKWithToken(token, user))
}
