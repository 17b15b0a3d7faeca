// Package signup реализует HTTP-обработчик регистрации пользователей.
//
// В нём определяется структура Request для входных данных, выполняется
// декодирование JSON, проверка и валидация полей, а также делегирование
// регистрации сервису аутентификации. Новая запись создается
// неподтвержденной, на почту отправляется письмо со ссылкой подтверждения.
package signup

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

// Request — структура входных данных для регистрации.
type Request struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, name, email, password string) (pending bool, err error)
}

// Handler обрабатывает HTTP-запросы регистрации.
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
// @Summary Регистрация пользователя
// @Description Создает неподтвержденную учетную запись и отправляет письмо со ссылкой подтверждения. Если по адресу уже есть неподтвержденная запись, возвращает action=verificationPending.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} response.Response "Письмо отправлено"
// @Success 200 {object} response.Response "Подтверждение уже ожидается"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ошибка валидации или email уже занят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /sign-up [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signup"

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

	pending, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			log.Error("email already taken", slog.String("email", req.Email))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("user with this email already exists"))
		case errors.Is(err, services.ErrDispatchFailed):
			log.Error("failed to send verification email", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.ErrorWithDetail("there was an error sending the email, try again later", err, h.prod))
		default:
			log.Error("failed to register user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	if pending {
		log.Info("verification already pending", slog.String("email", req.Email))
		render.JSON(w, r, response.OKWithAction("verificationPending",
			"account awaits email verification, check your inbox or request a new link"))
		return
	}

	log.Info("user registered", slog.String("email", req.Email))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OK("verification link sent to email"))
}
