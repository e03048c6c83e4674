package usecase

import "context"

// 注文イベントの発行先。commit後に呼ばれ、失敗しても注文は成立している。
// nilのときは発行しない。
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, o OrderOutput)
	PublishOrderPaid(ctx context.Context, o OrderOutput)
}
