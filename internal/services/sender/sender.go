// Package services реализует отправку писем учетного сервиса:
// подтверждение почты, сброс пароля и приветственное письмо.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/account-service/internal/lib/sl"
	"github.com/magabrotheeeer/account-service/internal/lib/smtp"
	"github.com/magabrotheeeer/account-service/internal/models"
)

// SenderService потребляет задачи из очереди уведомлений и доставляет
// письма через SMTP транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleEmailTask обрабатывает одно сообщение очереди: разбирает задачу
// и отправляет письмо соответствующего вида.
func (s *SenderService) HandleEmailTask(body []byte) error {
	var task models.EmailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal email task", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, bodyText, err := composeEmail(task)
	if err != nil {
		s.log.Error("failed to compose email", sl.Err(err), slog.String("kind", task.Kind))
		return err
	}
	return s.sendEmail([]string{task.Email}, subject, bodyText)
}

// composeEmail строит тему и текст письма по виду задачи.
func composeEmail(task models.EmailTask) (subject, bodyText string, err error) {
	switch task.Kind {
	case models.EmailKindVerification:
		subject = "Подтверждение адреса электронной почты"
		bodyText = fmt.Sprintf("Здравствуйте, %s!\n\nЧтобы подтвердить адрес электронной почты, перейдите по ссылке: %s\n\nСсылка действительна 24 часа.",
			task.Name, task.URL)
	case models.EmailKindReset:
		subject = "Сброс пароля"
		bodyText = fmt.Sprintf("Здравствуйте, %s!\n\nЧтобы задать новый пароль, перейдите по ссылке: %s\n\nСсылка действительна 10 минут. Если вы не запрашивали сброс пароля, просто проигнорируйте это письмо.",
			task.Name, task.URL)
	case models.EmailKindWelcome:
		subject = "Добро пожаловать!"
		bodyText = fmt.Sprintf("Здравствуйте, %s!\n\nСпасибо за регистрацию. После подтверждения почты вам будут доступны все возможности сервиса.",
			task.Name)
	default:
		return "", "", fmt.Errorf("unknown email kind: %q", task.Kind)
	}
	return subject, bodyText, nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
