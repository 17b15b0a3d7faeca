// Package verifyemail реализует HTTP-обработчик подтверждения почты.
//
// Исходный токен из письма берется из пути запроса. Успешное подтверждение
// помечает почту проверенной, гасит токен и сразу выпускает сессионный JWT.
package verifyemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики подтверждения почты.
type Service interface {
	VerifyEmail(ctx context.Context, rawToken string) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы подтверждения почты.
type Handler struct {
	log      *slog.Logger
	auth     Service
	tokenTTL time.Duration
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth Service, tokenTTL time.Duration) *Handler {
	return &Handler{
		log:      log,
		auth:     auth,
		tokenTTL: tokenTTL,
	}
}

// ServeHTTP godoc
// @Summary Подтверждение почты
// @Description Проверяет одноразовый токен из письма, помечает почту подтвержденной и выпускает JWT.
// @Tags Auth
// @Produce  json
// @Param token path string true "Токен подтверждения из письма"
// @Success 200 {object} response.Response "Почта подтверждена"
// @Failure 400 {object} response.ErrorResponse "Токен недействителен или истек"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /email/verify/{token} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verifyemail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	rawToken := chi.URLParam(r, "token")

	token, user, err := h.auth.VerifyEmail(r.Context(), rawToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrExpiredToken) {
			log.Error("verification token rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("token is invalid or expired"))
			return
		}
		log.Error("email verification failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("email verified", slog.String("user_uid", user.UID))
	response.SetSessionCookie(w, r, token, h.tokenTTL)
	render.JSON(w, r, response.OKWithToken(token, user))
}
