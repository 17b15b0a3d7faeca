package response

import (
	"net/http"
	"time"
)

// SessionCookieName — имя cookie с сессионным JWT.
const SessionCookieName = "jwt"

// logoutValue пишется в cookie при выходе вместо токена.
const logoutValue = "loggedoutnow"

// SetSessionCookie устанавливает HttpOnly cookie с сессионным токеном.
// Флаг Secure выставляется при TLS‑соединении или за TLS‑прокси
// (заголовок X-Forwarded-Proto: https).
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   isSecure(r),
	})
}

// ExpireSessionCookie заменяет сессионную cookie короткоживущей заглушкой,
// чтобы браузер перестал отправлять прежний токен.
func ExpireSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    logoutValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   isSecure(r),
	})
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
