package notifications

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"

	config "github.com/chineduopara/coursepay/configs"
)

const eventTopic = "coursepay.notifications"

var producer sarama.SyncProducer

// InitProducer connects the Kafka producer notification events fan out
// through. Optional: with no broker configured the notifier degrades to
// logging only.
func InitProducer() {
	broker := config.Config("KAFKA_BROKER")
	if broker == "" {
		log.Println("⚠️ KAFKA_BROKER not set; notification events will be logged only")
		return
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	var err error
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer([]string{broker}, cfg)
		if err == nil {
			log.Printf("✅ Kafka producer connected to %s", broker)
			return
		}
		log.Printf("Kafka connect attempt %d failed: %v", i, err)
		time.Sleep(2 * time.Second)
	}
	log.Printf("⚠️ Kafka unavailable after retries; notification events will be logged only")
	producer = nil
}

// Service implements services.Notifier. Publish failures are logged and
// never propagate: notifications must not block or fail a ledger
// transaction.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Notify(ctx context.Context, event string, payload map[string]any) {
	body, err := json.Marshal(map[string]any{
		"event":   event,
		"payload": payload,
		"at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("🔥 Failed to marshal notification event %s: %v", event, err)
		return
	}

	if producer == nil {
		log.Printf("notification event %s: %s", event, string(body))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: eventTopic,
		Key:   sarama.StringEncoder(event),
		Value: sarama.ByteEncoder(body),
	}
	if _, _, err := producer.SendMessage(msg); err != nil {
		log.Printf("🔥 Failed to publish notification event %s: %v", event, err)
	}
}
