// Package onetoken реализует одноразовые токены для подтверждения почты
// и сброса пароля.
//
// New возвращает криптографически случайное исходное значение, которое
// отдается пользователю ровно один раз (в письме). Hash строит его
// детерминированный sha256-хэш — именно он сохраняется в базе вместе
// со сроком действия. При проверке предъявленное значение хэшируется тем
// же способом и ищется по хэшу.
package onetoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// rawLen — длина случайной части токена в байтах.
const rawLen = 32

// New генерирует исходное значение одноразового токена.
func New() (string, error) {
	const op = "onetoken.New"
	buf := make([]byte, rawLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash возвращает hex-представление sha256-хэша исходного токена.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
