// Package jwt реализует генерацию и парсинг JWT токенов сессии.
//
// Maker определяет интерфейс для создания и проверки токенов, привязанных
// к идентификатору пользователя и моменту выпуска. MakerImpl — конкретная
// реализация с использованием секретного ключа и срока жизни токена.
package jwt

import (
	"errors"
	"time"
)

// Ошибки разбора токена. Шлюз отклоняет оба случая одинаково (401),
// но вызывающий код может различить их для логирования.
var (
	// ErrExpiredToken возвращается, когда подпись корректна, но срок истек.
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidToken возвращается для любого другого некорректного токена.
	ErrInvalidToken = errors.New("token is invalid")
)

// Maker описывает интерфейс для генерации и парсинга сессионных токенов.
type Maker interface {
	// GenerateToken выпускает подписанный токен для пользователя userUID.
	GenerateToken(userUID string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
