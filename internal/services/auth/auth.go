// Package services содержит логику бизнес-уровня для аутентификации:
// регистрацию с подтверждением почты, вход, сброс и смену пароля,
// а также разрешение сессионного токена в пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/account-service/internal/lib/onetoken"
	"github.com/magabrotheeeer/account-service/internal/lib/password"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/models"
	"github.com/magabrotheeeer/account-service/internal/storage/repository"
)

// Сроки жизни одноразовых токенов.
const (
	// VerificationTokenTTL — срок токена подтверждения почты.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL — срок токена сброса пароля.
	ResetTokenTTL = 10 * time.Minute
)

// passwordChangeSkew — на сколько назад сдвигается passwordChangedAt,
// чтобы токен, выпущенный в ту же секунду, не оказался отклонен из-за
// расхождения часов.
const passwordChangeSkew = time.Second

// UserRepository описывает контракт хранилища учетных записей,
// используемый аутентификацией.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByEmailAndVerified(ctx context.Context, email string, verified bool) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	SetResetToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, userUID string) error
	SetVerificationToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error
	ClearVerificationToken(ctx context.Context, userUID string) error
	MarkEmailVerified(ctx context.Context, userUID string) error
	UpdatePassword(ctx context.Context, userUID, passwordHash string, changedAt time.Time) error
}

// MailDispatcher отправляет письма с одноразовыми ссылками.
// Ошибка отправки приводит к откату записанного токена.
type MailDispatcher interface {
	DispatchVerification(ctx context.Context, user *models.User, rawToken string, withWelcome bool) error
	DispatchPasswordReset(ctx context.Context, user *models.User, rawToken string) error
}

// AuthService отвечает за жизненный цикл учетных данных и токенов.
type AuthService struct {
	users      UserRepository
	jwtMaker   jwt.Maker
	dispatcher MailDispatcher
	log        *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, dispatcher MailDispatcher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtMaker:   jwtMaker,
		dispatcher: dispatcher,
		log:        log,
	}
}

// NormalizeEmail приводит email к каноническому виду хранения.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового пользователя с неподтвержденной почтой и
// отправляет письмо со ссылкой подтверждения.
//
// Если по этому адресу уже есть неподтвержденная запись, новая не
// создается: возвращается pending=true, и клиенту остается только
// подтвердить почту или запросить повторное письмо. Хэш токена
// подтверждения записывается в базу вместе с самой записью — до
// отправки письма; если письмо поставить в очередь не удалось,
// поля токена очищаются и возвращается ErrDispatchFailed.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (pending bool, err error) {
	email = NormalizeEmail(email)

	if _, err := s.users.GetUserByEmailAndVerified(ctx, email, false); err == nil {
		return true, nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return false, err
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return false, err
	}
	rawToken, err := onetoken.New()
	if err != nil {
		return false, err
	}
	tokenHash := onetoken.Hash(rawToken)
	expires := time.Now().UTC().Add(VerificationTokenTTL)

	user := models.User{
		Name:                     strings.TrimSpace(name),
		Email:                    email,
		Role:                     models.RoleUser, // дефолтная роль при регистрации
		PasswordHash:             hashed,
		EmailVerified:            false,
		EmailVerificationToken:   &tokenHash,
		EmailVerificationExpires: &expires,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return false, ErrEmailTaken
		}
		return false, err
	}
	user.UID = uid

	if err := s.dispatcher.DispatchVerification(ctx, &user, rawToken, true); err != nil {
		s.log.Error("verification dispatch failed, rolling back token", sl.Err(err))
		if clearErr := s.users.ClearVerificationToken(ctx, uid); clearErr != nil {
			s.log.Error("failed to roll back verification token", sl.Err(clearErr))
		}
		return false, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	return false, nil
}

// Login проверяет пароль пользователя и выпускает сессионный токен.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.UID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ForgotPassword выпускает токен сброса пароля для подтвержденного
// пользователя и отправляет письмо со ссылкой.
//
// Хэш токена фиксируется в хранилище до передачи письма; ошибка
// отправки откатывает поля токена и возвращается как ErrDispatchFailed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmailAndVerified(ctx, NormalizeEmail(email), true)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	rawToken, err := onetoken.New()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.UID, onetoken.Hash(rawToken), expires); err != nil {
		return err
	}

	if err := s.dispatcher.DispatchPasswordReset(ctx, user, rawToken); err != nil {
		s.log.Error("reset dispatch failed, rolling back token", sl.Err(err))
		if clearErr := s.users.ClearResetToken(ctx, user.UID); clearErr != nil {
			s.log.Error("failed to roll back reset token", sl.Err(clearErr))
		}
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	return nil
}

// ResetPassword принимает исходный токен сброса, устанавливает новый
// пароль и выпускает свежий сессионный токен.
//
// Токен одноразовый: успешная смена пароля очищает поля сброса, повторное
// предъявление того же значения вернет ErrInvalidOrExpiredToken. Неудачная
// попытка ничего в записи не меняет.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByResetToken(ctx, onetoken.Hash(rawToken), time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidOrExpiredToken
		}
		return "", nil, err
	}
	return s.applyPasswordChange(ctx, user, newPassword)
}

// VerifyEmail принимает исходный токен подтверждения, помечает почту
// подтвержденной и выпускает сессионный токен.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (string, *models.User, error) {
	user, err := s.users.GetUserByVerificationToken(ctx, onetoken.Hash(rawToken), time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidOrExpiredToken
		}
		return "", nil, err
	}
	if err := s.users.MarkEmailVerified(ctx, user.UID); err != nil {
		return "", nil, err
	}
	user.EmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil

	token, err := s.jwtMaker.GenerateToken(user.UID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResendVerification выпускает новый токен подтверждения для
// неподтвержденной записи, перезаписывая предыдущий, и отправляет письмо.
// Если неподтвержденного пользователя с таким адресом нет — ErrUserNotFound.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmailAndVerified(ctx, NormalizeEmail(email), false)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	rawToken, err := onetoken.New()
	if err != nil {
		return err
	}
	expires := time.Now().UTC().Add(VerificationTokenTTL)
	if err := s.users.SetVerificationToken(ctx, user.UID, onetoken.Hash(rawToken), expires); err != nil {
		return err
	}

	if err := s.dispatcher.DispatchVerification(ctx, user, rawToken, false); err != nil {
		s.log.Error("verification dispatch failed, rolling back token", sl.Err(err))
		if clearErr := s.users.ClearVerificationToken(ctx, user.UID); clearErr != nil {
			s.log.Error("failed to roll back verification token", sl.Err(clearErr))
		}
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	return nil
}

// UpdatePassword меняет пароль аутентифицированного пользователя после
// проверки текущего и выпускает свежий сессионный токен.
func (s *AuthService) UpdatePassword(ctx context.Context, userUID, currentPassword, newPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	if err := password.CompareHash(user.PasswordHash, currentPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	return s.applyPasswordChange(ctx, user, newPassword)
}

// ResolveSession превращает сессионный токен в пользователя.
//
// Проверяется подпись и срок токена, существование активного пользователя
// и то, что пароль не менялся после выпуска токена. Смена пароля — это
// единственный серверный механизм отзыва в остальном самодостаточных токенов.
func (s *AuthService) ResolveSession(ctx context.Context, tokenStr string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.IssuedAt == nil {
		return nil, jwt.ErrInvalidToken
	}
	user, err := s.users.GetUserByUID(ctx, claims.UserUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, ErrStalePassword
	}
	return user, nil
}

// applyPasswordChange — общий шаг смены пароля: хэширование, фиксация
// passwordChangedAt (чуть в прошлом, с запасом на рассинхронизацию часов)
// и выпуск нового сессионного токена.
func (s *AuthService) applyPasswordChange(ctx context.Context, user *models.User, newPassword string) (string, *models.User, error) {
	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return "", nil, err
	}
	changedAt := time.Now().UTC().Add(-passwordChangeSkew)
	if err := s.users.UpdatePassword(ctx, user.UID, hashed, changedAt); err != nil {
		return "", nil, err
	}
	user.PasswordHash = hashed
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil

	token, err := s.jwtMaker.GenerateToken(user.UID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
