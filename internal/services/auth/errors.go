package services

import "errors"

// Операционные ошибки аутентификации. Обработчики переводят их в
// HTTP-статусы через errors.Is; тексты стабильны и не раскрывают
// внутренних деталей.
var (
	// ErrEmailTaken — попытка регистрации на занятый подтвержденный email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials — неверная пара email/пароль или текущий пароль.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUserNotFound — нет активного пользователя, подходящего под запрос.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOrExpiredToken — одноразовый токен не найден или просрочен.
	ErrInvalidOrExpiredToken = errors.New("token is invalid or expired")
	// ErrStalePassword — сессионный токен выпущен до смены пароля.
	ErrStalePassword = errors.New("password was recently changed")
	// ErrDispatchFailed — письмо не удалось поставить в очередь;
	// состояние токена к этому моменту уже откатано.
	ErrDispatchFailed = errors.New("failed to send email")
)
