package worker

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareQueue 声明一个持久化的队列
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 是否持久化
		false, // 是否自动删除
		false, // 是否独占
		false, // 是否不等待
		nil,   // 额外参数
	)
}

// PublishJSON 将 v 序列化后发送到默认交换机上的 queue 队列
func PublishJSON(ctx context.Context, ch *amqp.Channel, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
