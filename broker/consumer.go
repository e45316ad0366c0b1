package broker

import (
	"log"

	"github.com/nats-io/nats.go"
)

// Consumer fans messages from a set of subjects into one channel.
type Consumer struct {
	conn     *nats.Conn
	subs     []*nats.Subscription
	messages chan *nats.Msg
}

func NewConsumer(url string, subjects []string) (*Consumer, error) {
	conn, err := nats.Connect(url,
		nats.Name("qqueue-consumer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	consumer := &Consumer{
		conn:     conn,
		messages: make(chan *nats.Msg, 256),
	}

	for _, subject := range subjects {
		sub, err := conn.ChanSubscribe(subject, consumer.messages)
		if err != nil {
			consumer.Close()
			return nil, err
		}
		consumer.subs = append(consumer.subs, sub)
	}

	log.Printf("NATS consumer subscribed to %v", subjects)
	return consumer, nil
}

func (c *Consumer) Messages() <-chan *nats.Msg {
	return c.messages
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Failed to unsubscribe: %v", err)
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
