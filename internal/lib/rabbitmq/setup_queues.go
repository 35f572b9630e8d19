package rabbitmq

import "github.com/streadway/amqp"

// QueueConfig описывает очередь и ключ маршрутизации для воркера уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// ActivatedQueue — очередь событий активации подписок, из которой
// notification-sender рассылает письма-квитанции.
const ActivatedQueue = "entitlement.activated"

// GetNotificationQueues возвращает список очередей для воркера уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ActivatedQueue, RoutingKey: "activated"},
	}
}

// DeclareQueues объявляет очереди уведомлений на канале.
func DeclareQueues(ch *amqp.Channel) error {
	for _, q := range GetNotificationQueues() {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}
