package orderControllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/coderking2705/storefront-api/models"
)

const TopicOrderStatusUpdated = "order-status-updated"

var statusWriter *kafka.Writer

// InitEventPublisher wires the kafka writer for order status events.
// Without it (no brokers configured), publishing is a no-op.
func InitEventPublisher(brokers []string) {
	statusWriter = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicOrderStatusUpdated,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}

func CloseEventPublisher() {
	if statusWriter != nil {
		_ = statusWriter.Close()
		statusWriter = nil
	}
}

type statusEventPayload struct {
	OrderID     uint               `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	Actor       string             `json:"actor"`
	Timestamp   time.Time          `json:"timestamp"`
}

// notifyStatusChange fans a committed transition out to the websocket feed
// and, when configured, kafka. Both are best-effort: the transition itself
// has already committed and is never failed by notification problems.
func notifyStatusChange(order *models.Order, actor string) {
	broadcastOrderEvent("order_status_updated", order, actor)
	publishStatusEvent(order, actor)
}

// NotifyOrderPlaced is called by checkout after its transaction commits.
func NotifyOrderPlaced(order *models.Order, actor string) {
	broadcastOrderEvent("order_placed", order, actor)
	publishStatusEvent(order, actor)
}

func publishStatusEvent(order *models.Order, actor string) {
	if statusWriter == nil {
		return
	}
	value, err := json.Marshal(statusEventPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Actor:       actor,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Keyed by order number so events for one order stay in partition order.
	if err := statusWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: value,
	}); err != nil {
		logger.Warn().Err(err).Str("order_number", order.OrderNumber).
			Msg("failed to publish status event")
	}
}
