// Package models содержит структуры данных, общие для всех слоев приложения.
package models

import "time"

// Роли пользователей, допустимые в системе.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User описывает учетную запись пользователя.
//
// Поля с тегом json:"-" никогда не попадают в HTTP-ответы:
// хэш пароля, флаг мягкого удаления и состояние одноразовых токенов
// существуют только между хранилищем и бизнес-логикой.
type User struct {
	UID           string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Photo         string    `json:"photo,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`

	PasswordHash string `json:"-"`
	Active       bool   `json:"-"`

	// Служебные поля безопасности. В хранилище лежит только
	// sha256-хэш одноразового токена, исходное значение не сохраняется.
	PasswordChangedAt        *time.Time `json:"-"`
	PasswordResetToken       *string    `json:"-"`
	PasswordResetExpires     *time.Time `json:"-"`
	EmailVerificationToken   *string    `json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
}

// ChangedPasswordAfter сообщает, менялся ли пароль после момента issuedAt.
//
// Используется шлюзом аутентификации: сессионный токен, выпущенный до
// смены пароля, должен быть отклонен. Сравнение идет по секундам — с той же
// точностью, с которой claim iat хранится в JWT.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
