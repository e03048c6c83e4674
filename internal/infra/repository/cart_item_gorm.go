package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// ユーザーのカート明細を一覧取得
func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// チェックアウト用。カート行をFOR UPDATEで取得する。
func (r *CartItemGormRepository) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一商品は数量加算
// 行ロック→加算 or 新規作成。失われた更新を防ぐため呼び出し側でのread-then-writeはしない。
func (r *CartItemGormRepository) Upsert(ctx context.Context, userID int64, productID int64, addQty int64) (model.CartItem, bool, error) {
	if addQty <= 0 {
		return model.CartItem{}, false, errors.New("invalid quantity")
	}

	var out model.CartItem
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			item.Quantity += addQty
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", item.Quantity)
			if res.Error != nil {
				return res.Error
			}
			out = item
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成
		now := time.Now()
		newItem := model.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  addQty,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.Create(&newItem).Error; err != nil {
			// 同時に同じ(user, product)が入るとunique制約で落ちるので拾い直す
			retryErr := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND product_id = ?", userID, productID).
				First(&item).Error
			if retryErr != nil {
				return err
			}
			item.Quantity += addQty
			if res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", item.Quantity); res.Error != nil {
				return res.Error
			}
			out = item
			return nil
		}

		out = newItem
		created = true
		return nil
	})

	if err != nil {
		return model.CartItem{}, false, err
	}
	return out, created, nil
}

// 明細の数量を更新
func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) (model.CartItem, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", qty)

	if res.Error != nil {
		return model.CartItem{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.CartItem{}, repo.ErrNotFound
	}

	var item model.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// 明細を削除
func (r *CartItemGormRepository) DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザーのカートを全削除
func (r *CartItemGormRepository) ClearByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
