package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/lib/password"
	"github.com/magabrotheeeer/account-service/internal/models"
	"github.com/magabrotheeeer/account-service/internal/storage/repository"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByEmailAndVerified(ctx context.Context, email string, verified bool) (*models.User, error) {
	args := m.Called(ctx, email, verified)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, tokenHash, now)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, tokenHash, now)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepoMock) SetResetToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, userUID, tokenHash, expires)
	return args.Error(0)
}

func (m *UserRepoMock) ClearResetToken(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *UserRepoMock) SetVerificationToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error {
	args := m.Called(ctx, userUID, tokenHash, expires)
	return args.Error(0)
}

func (m *UserRepoMock) ClearVerificationToken(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *UserRepoMock) MarkEmailVerified(ctx context.Context, userUID string) error {
	args := m.Called(ctx, userUID)
	return args.Error(0)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, userUID, passwordHash string, changedAt time.Time) error {
	args := m.Called(ctx, userUID, passwordHash, changedAt)
	return args.Error(0)
}

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) DispatchVerification(ctx context.Context, user *models.User, rawToken string, withWelcome bool) error {
	args := m.Called(ctx, user, rawToken, withWelcome)
	return args.Error(0)
}

func (m *DispatcherMock) DispatchPasswordReset(ctx context.Context, user *models.User, rawToken string) error {
	args := m.Called(ctx, user, rawToken)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *UserRepoMock, dispatcher *DispatcherMock) *AuthService {
	return NewAuthService(repo, jwt.NewJWTMaker("test-secret", time.Hour), dispatcher, newNoopLogger())
}

func TestRegister_NewUser(t *testing.T) {
	repo := new(UserRepoMock)
	dispatcher := new(DispatcherMock)
	svc := newService(repo, dispatcher)

	repo.On("GetUserByEmailAndVerified", mock.Anything, "new@example.com", false).
		Return(nil, repository.ErrUserNotFound).Once()
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" &&
			u.Role == models.RoleUser &&
			!u.EmailVerified &&
			u.EmailVerificationToken != nil &&
			u.EmailVerificationExpires != nil &&
			u.PasswordHash != "secret-password"
	})).Return("uid-1", nil).Once()
	dispatcher.On("DispatchVerification", mock.Anything, mock.Anything, mock.Anything, true).
		Return(nil).Once()

	pending, err := svc.Register(context.Background(), "Lena", " New@Example.com ", "secret-password")
	require.NoError(t, err)
	assert.False(t, pending)

	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestRegister_VerificationPending(t *testing.T) {
	repo := new(UserRepoMock)
	dispatcher := new(DispatcherMock)
	svc := newService(repo, dispatcher)

	existing := &models.User{UID: "uid-1", Email: "dup@example.com"}
	repo.On("GetUserByEmailAndVerified", mock.Anything, "dup@example.com", false).
		Return(existing, nil).Once()

	pending, err := svc.Register(context.Background(), "Lena", "dup@example.com", "secret-password")
	require.NoError(t, err)
	assert.True(t, pending)

	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	dispatcher.AssertNotCalled(t, "DispatchVerification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_DispatchFailureRollsBackToken(t *testing.T) {
	repo := new(UserRepoMock)
	dispatcher := new(DispatcherMock)
	svc := newService(repo, dispatcher)

	repo.On("GetUserByEmailAndVerified", mock.Anything, "new@example.com", false).
		Return(nil, repository.ErrUserNotFound).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return("uid-1", nil).Once()
	dispatcher.On("DispatchVerification", mock.Anything, mock.Anything, mock.Anything, true).
		Return(errors.New("broker is down")).Once()
	repo.On("ClearVerificationToken", mock.Anything, "uid-1").Return(nil).Once()

	_, err := svc.Register(context.Background(), "Lena", "new@example.com", "secret-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)

	repo.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("secret-password")
	require.NoError(t, err)
	user := &models.User{UID: "uid-1", Email: "user@example.com", PasswordHash: hash}

	tests := []struct {
		name     string
		email    string
		pass     string
		repoUser *models.User
		repoErr  error
		wantErr  error
	}{
		{
			name:     "успешный вход",
			email:    "user@example.com",
			pass:     "secret-password",
			repoUser: user,
		},
		{
			name:     "неверный пароль",
			email:    "user@example.com",
			pass:     "wrong",
			repoUser: user,
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:    "неизвестный email",
			email:   "ghost@example.com",
			pass:    "secret-password",
			repoErr: repository.ErrUserNotFound,
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := newService(repo, new(DispatcherMock))
			repo.On("GetUserByEmail", mock.Anything, tt.email).Return(tt.repoUser, tt.repoErr).Once()

			token, got, err := svc.Login(context.Background(), tt.email, tt.pass)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.Equal(t, tt.repoUser, got)
		})
	}
}

func TestForgotPassword_NotVerified(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	repo.On("GetUserByEmailAndVerified", mock.Anything, "ghost@example.com", true).
		Return(nil, repository.ErrUserNotFound).Once()

	err := svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestForgotPassword_DispatchFailureRollsBackToken(t *testing.T) {
	repo := new(UserRepoMock)
	dispatcher := new(DispatcherMock)
	svc := newService(repo, dispatcher)

	user := &models.User{UID: "uid-1", Email: "user@example.com", EmailVerified: true}
	repo.On("GetUserByEmailAndVerified", mock.Anything, "user@example.com", true).
		Return(user, nil).Once()
	repo.On("SetResetToken", mock.Anything, "uid-1", mock.Anything, mock.Anything).Return(nil).Once()
	dispatcher.On("DispatchPasswordReset", mock.Anything, user, mock.Anything).
		Return(errors.New("broker is down")).Once()
	repo.On("ClearResetToken", mock.Anything, "uid-1").Return(nil).Once()

	err := svc.ForgotPassword(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDispatchFailed)

	repo.AssertExpectations(t)
}

func TestResetPassword_InvalidToken(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	repo.On("GetUserByResetToken", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, repository.ErrUserNotFound).Once()

	_, _, err := svc.ResetPassword(context.Background(), "stale-token", "new-password")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_Success(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	user := &models.User{UID: "uid-1", Email: "user@example.com"}
	repo.On("GetUserByResetToken", mock.Anything, mock.Anything, mock.Anything).
		Return(user, nil).Once()
	repo.On("UpdatePassword", mock.Anything, "uid-1", mock.Anything, mock.MatchedBy(func(changedAt time.Time) bool {
		// passwordChangedAt фиксируется чуть в прошлом
		return changedAt.Before(time.Now())
	})).Return(nil).Once()

	token, got, err := svc.ResetPassword(context.Background(), "raw-token", "new-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Nil(t, got.PasswordResetToken)
	assert.Nil(t, got.PasswordResetExpires)
	assert.NotNil(t, got.PasswordChangedAt)

	repo.AssertExpectations(t)
}

func TestVerifyEmail_Success(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	tokenHash := "hash"
	user := &models.User{UID: "uid-1", EmailVerificationToken: &tokenHash}
	repo.On("GetUserByVerificationToken", mock.Anything, mock.Anything, mock.Anything).
		Return(user, nil).Once()
	repo.On("MarkEmailVerified", mock.Anything, "uid-1").Return(nil).Once()

	token, got, err := svc.VerifyEmail(context.Background(), "raw-token")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.EmailVerificationToken)

	repo.AssertExpectations(t)
}

func TestResendVerification_NotFound(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	repo.On("GetUserByEmailAndVerified", mock.Anything, "ghost@example.com", false).
		Return(nil, repository.ErrUserNotFound).Once()

	err := svc.ResendVerification(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	hash, err := password.GetHash("secret-password")
	require.NoError(t, err)

	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))
	repo.On("GetUserByUID", mock.Anything, "uid-1").
		Return(&models.User{UID: "uid-1", PasswordHash: hash}, nil).Once()

	_, _, err = svc.UpdatePassword(context.Background(), "uid-1", "wrong", "new-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveSession(t *testing.T) {
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken("uid-1")
	require.NoError(t, err)

	staleChange := time.Now().Add(time.Minute)

	tests := []struct {
		name     string
		repoUser *models.User
		repoErr  error
		wantErr  error
	}{
		{
			name:     "валидная сессия",
			repoUser: &models.User{UID: "uid-1"},
		},
		{
			name:    "пользователь удален",
			repoErr: repository.ErrUserNotFound,
			wantErr: ErrUserNotFound,
		},
		{
			name:     "пароль сменился после выпуска токена",
			repoUser: &models.User{UID: "uid-1", PasswordChangedAt: &staleChange},
			wantErr:  ErrStalePassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := NewAuthService(repo, maker, new(DispatcherMock), newNoopLogger())
			repo.On("GetUserByUID", mock.Anything, "uid-1").Return(tt.repoUser, tt.repoErr).Once()

			got, err := svc.ResolveSession(context.Background(), token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.repoUser, got)
		})
	}
}

func TestResolveSession_BadToken(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	_, err := svc.ResolveSession(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	repo.AssertNotCalled(t, "GetUserByUID", mock.Anything, mock.Anything)
}

func TestResolveSession_MissingIssuedAt(t *testing.T) {
	// Подписанный нашим же секретом токен без iat не должен ронять сервис.
	claims := jwt.Claims{
		UserUID: "uid-1",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	repo := new(UserRepoMock)
	svc := newService(repo, new(DispatcherMock))

	_, err = svc.ResolveSession(context.Background(), signed)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	repo.AssertNotCalled(t, "GetUserByUID", mock.Anything, mock.Anything)
}
