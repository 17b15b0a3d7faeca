package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/account-service/internal/models"
)

// Dispatcher публикует задачи на отправку писем в обменник уведомлений.
//
// Публикация синхронна относительно HTTP-ответа: ошибка здесь — это
// та самая ошибка доставки, после которой бизнес-слой откатывает
// только что записанные поля одноразового токена.
type Dispatcher struct {
	ch      *amqp.Channel
	baseURL string
}

// NewDispatcher создает Dispatcher поверх открытого канала.
// baseURL — внешний адрес сервиса для ссылок в письмах.
func NewDispatcher(ch *amqp.Channel, baseURL string) *Dispatcher {
	return &Dispatcher{ch: ch, baseURL: baseURL}
}

// DispatchVerification ставит в очередь письмо со ссылкой подтверждения
// почты; при withWelcome следом уходит приветственное письмо.
func (d *Dispatcher) DispatchVerification(_ context.Context, user *models.User, rawToken string, withWelcome bool) error {
	task := models.EmailTask{
		Kind:  models.EmailKindVerification,
		Email: user.Email,
		Name:  user.Name,
		URL:   fmt.Sprintf("%s/api/v1/users/email/verify/%s", d.baseURL, rawToken),
	}
	if err := PublishMessage(d.ch, Exchange, RoutingKeyVerification, task); err != nil {
		return err
	}
	if !withWelcome {
		return nil
	}
	welcome := models.EmailTask{
		Kind:  models.EmailKindWelcome,
		Email: user.Email,
		Name:  user.Name,
	}
	return PublishMessage(d.ch, Exchange, RoutingKeyWelcome, welcome)
}

// DispatchPasswordReset ставит в очередь письмо со ссылкой сброса пароля.
func (d *Dispatcher) DispatchPasswordReset(_ context.Context, user *models.User, rawToken string) error {
	task := models.EmailTask{
		Kind:  models.EmailKindReset,
		Email: user.Email,
		Name:  user.Name,
		URL:   fmt.Sprintf("%s/api/v1/users/password/reset/%s", d.baseURL, rawToken),
	}
	return PublishMessage(d.ch, Exchange, RoutingKeyReset, task)
}
