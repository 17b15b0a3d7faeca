package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/magabrotheeeer/account-service/internal/config"
	"github.com/magabrotheeeer/account-service/internal/lib/sl"
)

// Transport устанавливает соединения с SMTP-сервером для отправки писем
// аккаунт-сервиса. Сервер обязан поддерживать STARTTLS.
type Transport struct {
	host string
	port string
	user string
	pass string
	log  *slog.Logger
}

// NewTransport создает транспорт из SMTP-секции конфигурации.
func NewTransport(cfg *config.Config, log *slog.Logger) *Transport {
	return &Transport{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		log:  log,
	}
}

// smtpClientWrapper адаптирует *smtp.Client к интерфейсу Client.
type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error { return w.client.Mail(from) }
func (w *smtpClientWrapper) Rcpt(to string) error { return w.client.Rcpt(to) }
func (w *smtpClientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }
func (w *smtpClientWrapper) Quit() error { return w.client.Quit() }
func (w *smtpClientWrapper) Close() error { return w.client.Close() }

// Connect открывает TCP-соединение, переводит его в TLS через STARTTLS
// и проходит PLAIN-аутентификацию.
func (t *Transport) Connect() (Client, error) {
	addr := net.JoinHostPort(t.host, t.port)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("dial smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS", slog.String("addr", addr))
		t.closeClient(client)
		return nil, fmt.Errorf("smtp server does not support STARTTLS")
	}
	tlsConfig := &tls.Config{
		ServerName: t.host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		t.closeClient(client)
		return nil, fmt.Errorf("start tls: %w", err)
	}

	auth := smtp.PlainAuth("", t.user, t.pass, t.host)
	if err = client.Auth(auth); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeClient(client)
		return nil, fmt.Errorf("smtp auth: %w", err)
	}

	return &smtpClientWrapper{client: client}, nil
}

func (t *Transport) closeClient(client *smtp.Client) {
	if err := client.Close(); err != nil {
		t.log.Error("failed to close SMTP client", sl.Err(err))
	}
}

// GetSMTPUser возвращает адрес отправителя, от имени которого шлются письма.
func (t *Transport) GetSMTPUser() string {
	return t.user
}
