package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/flightticket/internal/domain"
	"github.com/Domenick1991/flightticket/internal/kafka"
	"github.com/Domenick1991/flightticket/internal/metrics"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// KafkaNotifier publishes ticket events in the background. Notify never
// blocks the caller and delivery failures are only logged.
type KafkaNotifier struct {
	publisher Publisher
	topic     string
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewKafkaNotifier(publisher Publisher, topic string, timeout time.Duration) *KafkaNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaNotifier{publisher: publisher, topic: topic, timeout: timeout}
}

func (n *KafkaNotifier) Notify(eventType string, ticket domain.Ticket) {
	if n.publisher == nil || n.topic == "" {
		return
	}
	event := kafka.NewTicketEvent(eventType, ticket)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		// the request context is gone by now
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		err := n.publisher.Publish(ctx, n.topic, event.Key(), event)
		metrics.ObserveNotification(eventType, err)
		if err != nil {
			slog.Warn("ticket notification not published",
				"event", eventType, "ticket_id", ticket.ID, "error", err)
		}
	}()
}

// Close waits for in-flight notifications.
func (n *KafkaNotifier) Close() {
	n.wg.Wait()
}
