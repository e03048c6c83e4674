package broker

import (
	"context"
	"strconv"
	"time"

	"github.com/Nathan2412/project-api/internal/usecase"

	"go.uber.org/zap"
)

// usecase.OrderEventPublisher のKafka実装。
// 発行はcommit後なので、失敗はログに残すだけで呼び出し元には返さない。
type OrderEvents struct {
	producer *Producer
	logger   *zap.Logger
}

func NewOrderEvents(producer *Producer, logger *zap.Logger) *OrderEvents {
	return &OrderEvents{producer: producer, logger: logger}
}

func (e *OrderEvents) PublishOrderCreated(ctx context.Context, o usecase.OrderOutput) {
	e.publish(ctx, EventOrderCreated, o)
}

func (e *OrderEvents) PublishOrderPaid(ctx context.Context, o usecase.OrderOutput) {
	e.publish(ctx, EventOrderPaid, o)
}

func (e *OrderEvents) publish(ctx context.Context, eventType string, o usecase.OrderOutput) {
	items := make([]OrderItemEvent, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemEvent{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.String(),
		})
	}

	ev := OrderEvent{
		Type:      eventType,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total.String(),
		Status:    o.Status,
		Items:     items,
		Timestamp: time.Now(),
	}

	key := strconv.FormatInt(o.ID, 10)
	if err := e.producer.PublishEvent(ctx, key, ev); err != nil {
		e.logger.Warn("order event publish failed",
			zap.String("type", eventType),
			zap.Int64("order_id", o.ID),
			zap.Error(err),
		)
	}
}
