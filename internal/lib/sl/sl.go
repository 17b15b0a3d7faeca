// Package sl содержит вспомогательные функции для логгера slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки для единообразного
// вывода ошибок в структурированном логе.
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}
