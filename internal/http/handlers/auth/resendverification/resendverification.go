// Package resendverification реализует HTTP-обработчик повторной отправки
// письма подтверждения почты. Предыдущий токен подтверждения при этом
// перезаписывается новым.
package resendverification

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

// Request — структура входных данных для повторной отправки письма.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Service описывает интерфейс бизнес-логики повторной отправки.
type Service interface {
	ResendVerification(ctx context.Context, email string) error
}

// Handler обрабатывает HTTP-запросы повторной отправки письма подтверждения.
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
// @Summary Повторная отправка письма подтверждения
// @Description Выпускает новый токен подтверждения для неподтвержденной записи и отправляет письмо.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email пользователя"
// @Success 200 {object} response.Response "Письмо отправлено"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Неподтвержденный пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /email/resend [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resendverification"

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

	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			log.Error("unverified user not found", slog.String("email", req.Email))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("there is no unverified user with this email address"))
		case errors.Is(err, services.ErrDispatchFailed):
			log.Error("failed to send verification email", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorWithDetail("there was an error sending the email, try again later", err, h.prod))
		default:
			log.Error("resend verification failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("verification link re-dispatched", slog.String("email", req.Email))
	render.JSON(w, r, response.OK("verification link sent to email"))
}
