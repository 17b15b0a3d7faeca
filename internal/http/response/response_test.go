package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKWithToken(t *testing.T) {
	resp := OKWithToken("session-token", map[string]string{"id": "uid-1"})
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "session-token", resp.Token)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"message"`)
	assert.Contains(t, string(raw), `"user"`)
}

func TestErrorWithDetail(t *testing.T) {
	err := errors.New("pq: connection refused")

	dev := ErrorWithDetail("internal error", err, false)
	assert.Equal(t, StatusError, dev.Status)
	assert.Equal(t, "pq: connection refused", dev.Error)

	// в боевом окружении текст исходной ошибки не утекает
	prod := ErrorWithDetail("internal error", err, true)
	assert.Empty(t, prod.Error)
	assert.Equal(t, "internal error", prod.Message)
}

func TestSetSessionCookie(t *testing.T) {
	tests := []struct {
		name       string
		tls        bool
		forwarded  string
		wantSecure bool
	}{
		{name: "обычный http", wantSecure: false},
		{name: "прямое tls-соединение", tls: true, wantSecure: true},
		{name: "за tls-прокси", forwarded: "https", wantSecure: true},
		{name: "прокси без tls", forwarded: "http", wantSecure: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", nil)
			if tt.tls {
				req = httptest.NewRequest(http.MethodPost, "https://example.com/login", nil)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			rec := httptest.NewRecorder()

			SetSessionCookie(rec, req, "session-token", time.Hour)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			cookie := cookies[0]
			assert.Equal(t, SessionCookieName, cookie.Name)
			assert.Equal(t, "session-token", cookie.Value)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, tt.wantSecure, cookie.Secure)
			assert.WithinDuration(t, time.Now().Add(time.Hour), cookie.Expires, time.Minute)
		})
	}
}

func TestExpireSessionCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()

	ExpireSessionCookie(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.Equal(t, "loggedoutnow", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.WithinDuration(t, time.Now(), cookie.Expires, 15*time.Second)
}
