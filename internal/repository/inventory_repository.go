package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減らす。足りなければ false。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	// 在庫戻し（キャンセル等）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
	SetStock(ctx context.Context, productID int64, newStock int64) error
}
