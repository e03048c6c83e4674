package repository

import (
	"context"

	"github.com/Nathan2412/project-api/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// チェックアウト用。カート行をFOR UPDATEで取得する。
	ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品は数量加算。(user_id, product_id) 単位のアトミックなupsert。
	Upsert(ctx context.Context, userID int64, productID int64, addQty int64) (model.CartItem, bool, error)
	UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) (model.CartItem, error)
	DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error
	ClearByUserID(ctx context.Context, userID int64) error
}
