package rabbitmq

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// maxInFlight ограничивает число почтовых задач, обрабатываемых одновременно.
const maxInFlight = 10

// ConsumerMessage подписывается на очередь и передает тело каждого сообщения
// обработчику в отдельной горутине. Ошибка обработчика возвращает сообщение
// в очередь через nack с requeue; успешная обработка подтверждается ack.
// Потребление останавливается при отмене контекста или закрытии канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: consume %q: %w", op, queueName, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(d, handler(d.Body))
				}(d)
			}
		}
	}()
	return nil
}

func settle(d amqp.Delivery, handlerErr error) {
	if handlerErr != nil {
		if err := d.Nack(false, true); err != nil {
			log.Printf("failed to nack message: %v", err)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Printf("failed to ack message: %v", err)
	}
}
