package payment

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlement-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// AMQPPublisher публикует события активации в очередь RabbitMQ.
type AMQPPublisher struct {
	ch *amqp.Channel
}

// NewAMQPPublisher создает новый AMQPPublisher.
func NewAMQPPublisher(ch *amqp.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch}
}

// PublishActivated отправляет событие активации в очередь уведомлений.
func (p *AMQPPublisher) PublishActivated(event models.ActivatedEvent) error {
	return rabbitmq.PublishMessage(p.ch, "", rabbitmq.ActivatedQueue, event)
}
