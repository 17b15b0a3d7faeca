// Package logout реализует HTTP-обработчик выхода из сессии.
//
// Сессионная cookie заменяется короткоживущей заглушкой; сам JWT остается
// валиден до истечения срока, сервер его отдельно не отзывает.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/account-service/internal/http/response"
)

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Выход из сессии
// @Description Заменяет сессионную cookie короткоживущей заглушкой.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Успешный выход"
// @Router /logout [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	response.ExpireSessionCookie(w, r)
	log.Info("session cookie expired")
	render.JSON(w, r, response.OK("logged out"))
}
