package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/http/response"
	services "github.com/magabrotheeeer/account-service/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, name, email, password string) (bool, error) {
	args := m.Called(ctx, name, email, password)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSignupHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockPending    bool
		mockErr        error
		skipMock       bool
		wantStatusCode int
		wantStatus     string
		wantAction     string
		wantMessage    string
	}{
		{
			name: "успешная регистрация",
			requestBody: Request{
				Name:            "Lena",
				Email:           "lena@example.com",
				Password:        "secret-password",
				PasswordConfirm: "secret-password",
			},
			wantStatusCode: http.StatusCreated,
			wantStatus:     response.StatusSuccess,
		},
		{
			name: "подтверждение уже ожидается",
			requestBody: Request{
				Name:            "Lena",
				Email:           "lena@example.com",
				Password:        "secret-password",
				PasswordConfirm: "secret-password",
			},
			mockPending:    true,
			wantStatusCode: http.StatusOK,
			wantStatus:     response.StatusSuccess,
			wantAction:     "verificationPending",
		},
		{
			name:           "некорректный json",
			requestBody:    "not a json",
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     response.StatusError,
			wantMessage:    "invalid request body",
		},
		{
			name: "некорректный email",
			requestBody: Request{
				Name:            "Lena",
				Email:           "not-an-email",
				Password:        "secret-password",
				PasswordConfirm: "secret-password",
			},
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     response.StatusError,
			wantMessage:    "field Email must be a valid email address",
		},
		{
			name: "пароли не совпадают",
			requestBody: Request{
				Name:            "Lena",
				Email:           "lena@example.com",
				Password:        "secret-password",
				PasswordConfirm: "different-password",
			},
			skipMock:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     response.StatusError,
			wantMessage:    "field PasswordConfirm does not match Password",
		},
		{
			name: "email уже занят",
			requestBody: Request{
				Name:            "Lena",
				Email:           "lena@example.com",
				Password:        "secret-password",
				PasswordConfirm: "secret-password",
			},
			mockErr:        services.ErrEmailTaken,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     response.StatusError,
			wantMessage:    "user with this email already exists",
		},
		{
			name: "письмо не отправилось",
			requestBody: Request{
				Name:            "Lena",
				Email:           "lena@example.com",
				Password:        "secret-password",
				PasswordConfirm: "secret-password",
			},
			mockErr:        services.ErrDispatchFailed,
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     response.StatusError,
			wantMessage:    "there was an error sending the email, try again later",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if !tt.skipMock {
				authMock.On("Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(tt.mockPending, tt.mockErr).Once()
			}

			handler := New(newNoopLogger(), authMock, true)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/sign-up", bytes.NewReader(bodyBytes))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			if tt.wantAction != "" {
				assert.Equal(t, tt.wantAction, resp.Action)
			}
			if tt.wantMessage != "" {
				assert.Contains(t, resp.Message, tt.wantMessage)
			}

			authMock.AssertExpectations(t)
		})
	}
}
