package broker

import (
	"encoding/json"
	"log"

	"qqueue-app/qqueue/models"

	"github.com/nats-io/nats.go"
)

var producer *nats.Conn

func InitProducer(url string) error {
	conn, err := nats.Connect(url,
		nats.Name("qqueue-producer"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return err
	}
	producer = conn
	log.Println("NATS producer initialized")
	return nil
}

// PublishEvent publishes a committed event row to its subject. Publishing is
// best-effort: when the broker is down the event row still holds the audit
// trail and Dispatched stays false.
func PublishEvent(event *models.Event) {
	if producer == nil {
		return
	}

	subject := SubjectForEntity(event.Entity)
	if subject == "" {
		log.Printf("No subject for entity %q, skipping publish", event.Entity)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal event %s: %v", event.ID, err)
		return
	}

	if err := producer.Publish(subject, data); err != nil {
		log.Printf("Failed to publish event to %s: %v", subject, err)
	}
}

func CloseProducer() {
	if producer != nil {
		producer.Close()
		producer = nil
	}
}
