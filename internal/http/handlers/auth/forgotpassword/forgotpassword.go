// Package forgotpassword реализует HTTP-обработчик запроса сброса пароля.
//
// Для подтвержденного пользователя выпускается одноразовый токен сброса
// и на почту отправляется письмо со ссылкой. В базе хранится только хэш
// токена; исходное значение уходит лишь в письмо.
package forgotpassword

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
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

// Request — структура входных данных для запроса сброса пароля.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
}

// Handler обрабатывает HTTP-запросы на выпуск токена сброса.
type Handler struct {
	log      *slog.Logger
	auth     Service
	prod     bool
	validate *validator.Validate
}

// New создает новый экземпляр Handler. Вне боевого окружения (prod=false)
// ответ об ошибке отправки письма содержит текст исходной ошибки.
func New(log *slog.Logger, auth Service, prod bool) *Handler {
	return &Handler{
		log:      log,
		auth:     auth,
		prod:     prod,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запрос сброса пароля
// @Description Отправляет письмо со ссылкой сброса пароля подтвержденному пользователю.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email пользователя"
// @Success 200 {object} response.Response "Письмо отправлено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Подтвержденный пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /password/forgot [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"

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

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			log.Error("verified user not found", slog.String("email", req.Email))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("there is no verified user with this email address"))
		case errors.Is(err, services.ErrDispatchFailed):
			log.Error("failed to send reset email", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorWithDetail("there was an error sending the email, try again later", err, h.prod))
		default:
			log.Error("forgot password failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("reset link dispatched", slog.String("email", req.Email))
	render.JSON(w, r, response.OK("token sent to email"))
}
