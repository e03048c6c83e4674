package broker

import "time"

const (
	EventOrderCreated = "order.created"
	EventOrderPaid    = "order.paid"
)

type OrderItemEvent struct {
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

// 注文ライフサイクルのイベント。totalは文字列の10進表現で運ぶ。
type OrderEvent struct {
	Type      string           `json:"type"`
	OrderID   int64            `json:"order_id"`
	UserID    int64            `json:"user_id"`
	Total     string           `json:"total"`
	Status    string           `json:"status"`
	Items     []OrderItemEvent `json:"items,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
