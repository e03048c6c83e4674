package repository

import (
	"context"
	"errors"

	"github.com/Nathan2412/project-api/internal/domain/model"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string // "created_at:desc" 形式
}

type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	// 行ロック付きでID順に取得（ロック順を固定してデッドロックを避ける）
	FindByIDsForUpdate(ctx context.Context, productIDs []int64) ([]model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, productID int64) error
}
