// Package services содержит бизнес-логику работы с профилями пользователей
// и административными операциями, включая кеширование чтений.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/account-service/internal/cache"
	"github.com/magabrotheeeer/account-service/internal/lib/password"
	"github.com/magabrotheeeer/account-service/internal/models"
	"github.com/magabrotheeeer/account-service/internal/storage/repository"
)

// Операционные ошибки профильного слоя.
var (
	// ErrUserNotFound — активного пользователя с таким UID нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordUpdateNotAllowed — попытка сменить пароль через
	// обновление профиля; для этого есть отдельный маршрут.
	ErrPasswordUpdateNotAllowed = errors.New("this route is not for password updates")
	// ErrEmailTaken — активный пользователь с таким email уже существует.
	ErrEmailTaken = errors.New("user with this email already exists")
)

// cacheTTL — время жизни закешированного профиля.
const cacheTTL = time.Hour

// UserRepository описывает контракт хранилища для профильных и
// административных операций.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userUID, name, email, photo string) (*models.User, error)
	UpdateUser(ctx context.Context, userUID, name, email, role string) (*models.User, error)
	DeactivateUser(ctx context.Context, userUID string) error
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// UserService реализует профильные и административные операции.
//
// Кешируются только профильные чтения; путь аутентификации этим
// сервисом не пользуется и всегда читает хранилище напрямую.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetByUID возвращает профиль пользователя, используя кеш или хранилище.
func (s *UserService) GetByUID(ctx context.Context, userUID string) (*models.User, error) {
	var cached models.User
	cacheKey := cache.UserKey(userUID)
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, s.translate(err)
	}
	if err := s.cache.Set(cacheKey, user, cacheTTL); err != nil {
		s.log.Warn("failed to cache user", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return user, nil
}

// UpdateSelf обновляет имя, email и фото текущего пользователя.
// Пустые поля запроса оставляют прежние значения.
func (s *UserService) UpdateSelf(ctx context.Context, userUID, name, email, photo string) (*models.User, error) {
	user, err := s.repo.UpdateProfile(ctx, userUID, name, NormalizeEmailForUpdate(email), photo)
	if err != nil {
		return nil, s.translate(err)
	}
	s.invalidate(userUID)
	return user, nil
}

// DeactivateSelf выполняет мягкое удаление текущего пользователя.
func (s *UserService) DeactivateSelf(ctx context.Context, userUID string) error {
	if err := s.repo.DeactivateUser(ctx, userUID); err != nil {
		return s.translate(err)
	}
	s.invalidate(userUID)
	return nil
}

// List возвращает страницу активных пользователей.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// Create создает пользователя от имени администратора: запись сразу
// активна и подтверждена, письмо не отправляется.
func (s *UserService) Create(ctx context.Context, name, email, rawPassword, role string) (*models.User, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		Name:          name,
		Email:         NormalizeEmailForUpdate(email),
		Role:          role,
		PasswordHash:  hashed,
		EmailVerified: true,
	}
	uid, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, s.translate(err)
	}
	return s.repo.GetUserByUID(ctx, uid)
}

// Update обновляет имя, email и роль пользователя (административная операция).
func (s *UserService) Update(ctx context.Context, userUID, name, email, role string) (*models.User, error) {
	user, err := s.repo.UpdateUser(ctx, userUID, name, NormalizeEmailForUpdate(email), role)
	if err != nil {
		return nil, s.translate(err)
	}
	s.invalidate(userUID)
	return user, nil
}

// Delete выполняет мягкое удаление пользователя (административная операция).
func (s *UserService) Delete(ctx context.Context, userUID string) error {
	if err := s.repo.DeactivateUser(ctx, userUID); err != nil {
		return s.translate(err)
	}
	s.invalidate(userUID)
	return nil
}

// NormalizeEmailForUpdate приводит непустой email к каноническому виду;
// пустая строка остается пустой и означает "поле не менять".
func NormalizeEmailForUpdate(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEmailTaken):
		return ErrEmailTaken
	default:
		return err
	}
}

func (s *UserService) invalidate(userUID string) {
	cacheKey := cache.UserKey(userUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
}
