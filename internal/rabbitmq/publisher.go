package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage сериализует сообщение в JSON и публикует его в обменник
// с заданным ключом маршрутизации. Сообщения помечаются как persistent,
// чтобы задачи на отправку писем переживали перезапуск брокера.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: marshal message: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: publish to %q: %w", op, routingkey, err)
	}
	return nil
}
