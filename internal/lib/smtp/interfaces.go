// Package smtp предоставляет транспорт для отправки писем аккаунт-сервиса.
package smtp

import "io"

// Client описывает минимальный набор команд SMTP-сессии, который нужен
// отправителю писем.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface описывает транспорт, устанавливающий SMTP-соединение
// и сообщающий адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
