package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/models"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func nextRecorder(called *bool, gotUID *string, gotRole *string) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		*called = true
		if uid, ok := r.Context().Value(UserUID).(string); ok {
			*gotUID = uid
		}
		if role, ok := r.Context().Value(Role).(string); ok {
			*gotRole = role
		}
	})
}

func TestJWTMiddleware(t *testing.T) {
	user := &models.User{UID: "uid-1", Role: models.RoleUser}

	tests := []struct {
		name        string
		header      string
		cookie      string
		resolved    *models.User
		resolveErr  error
		wantStatus  int
		wantNext    bool
		wantUserUID string
	}{
		{
			name:        "валидный токен в заголовке",
			header:      "Bearer good-token",
			resolved:    user,
			wantStatus:  http.StatusOK,
			wantNext:    true,
			wantUserUID: "uid-1",
		},
		{
			name:        "валидный токен в cookie",
			cookie:      "good-token",
			resolved:    user,
			wantStatus:  http.StatusOK,
			wantNext:    true,
			wantUserUID: "uid-1",
		},
		{
			name:       "нет токена",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "истекший токен",
			header:     "Bearer stale-token",
			resolveErr: jwt.ErrExpiredToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "владелец токена удален",
			header:     "Bearer good-token",
			resolveErr: services.ErrUserNotFound,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "пароль менялся после выпуска токена",
			header:     "Bearer good-token",
			resolveErr: services.ErrStalePassword,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(ResolverMock)
			if tt.resolved != nil || tt.resolveErr != nil {
				resolver.On("ResolveSession", mock.Anything, mock.Anything).
					Return(tt.resolved, tt.resolveErr).Once()
			}

			var called bool
			var gotUID, gotRole string
			handler := JWTMiddleware(resolver, newNoopLogger())(nextRecorder(&called, &gotUID, &gotRole))

			req := httptest.NewRequest(http.MethodGet, "/self", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: response.SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, called)
			if tt.wantNext {
				assert.Equal(t, tt.wantUserUID, gotUID)
				assert.Equal(t, models.RoleUser, gotRole)
			}
		})
	}
}

func TestJWTMiddleware_HeaderTakesPrecedenceOverCookie(t *testing.T) {
	resolver := new(ResolverMock)
	resolver.On("ResolveSession", mock.Anything, "header-token").
		Return(&models.User{UID: "uid-1"}, nil).Once()

	var called bool
	var gotUID, gotRole string
	handler := JWTMiddleware(resolver, newNoopLogger())(nextRecorder(&called, &gotUID, &gotRole))

	req := httptest.NewRequest(http.MethodGet, "/self", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: response.SessionCookieName, Value: "cookie-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	resolver.AssertExpectations(t)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       any
		allowed    []string
		wantStatus int
		wantNext   bool
	}{
		{
			name:       "роль разрешена",
			role:       models.RoleAdmin,
			allowed:    []string{models.RoleAdmin},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
		{
			name:       "роль запрещена",
			role:       models.RoleUser,
			allowed:    []string{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "роль отсутствует в контексте",
			role:       nil,
			allowed:    []string{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var gotUID, gotRole string
			handler := RequireRole(newNoopLogger(), tt.allowed...)(nextRecorder(&called, &gotUID, &gotRole))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), Role, tt.role))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, called)
		})
	}
}
