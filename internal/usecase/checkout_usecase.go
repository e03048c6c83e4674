package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"
	"github.com/Nathan2412/project-api/internal/util"

	"go.uber.org/zap"
)

// CheckoutUsecase はカートを注文に変換する。
// 検証・注文作成・在庫減算・カート削除はひとつのトランザクションで行い、
// どこかで失敗したら全部rollbackする（部分的な注文は残らない）。
type CheckoutUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
	logger *zap.Logger
}

func NewCheckoutUsecase(tx repo.TransactionManager, events OrderEventPublisher, logger *zap.Logger) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, events: events, logger: logger}
}

// Checkout はユーザーのカートから注文を作る。
//
//  1. カート行と対象商品の行をFOR UPDATEでロックする。
//     同じ商品に触る並行checkoutはここで直列化される。
//  2. 先に全明細の在庫を検証。1つでも足りなければINSUFFICIENT_STOCKで
//     全体をabortする（部分的な注文・減算はしない）。
//  3. 注文＋明細（価格スナップショット）を作成し、在庫を減らし、
//     カートを空にしてcommit。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}

	start := time.Now()
	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//カート行をロックして取得
		cartItems, err := r.CartItems().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return errInternal()
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyCart, "cart is empty")
		}

		//商品の行ロック。ID順で取るのでデッドロックしない。
		ids := make([]int64, 0, len(cartItems))
		for _, ci := range cartItems {
			ids = append(ids, ci.ProductID)
		}
		products, err := r.Products().FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return errInternal()
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		//在庫検証。ここでのreadは先行トランザクションのcommit済み減算を見る。
		items := make([]PlaceOrderItemInput, 0, len(cartItems))
		for _, ci := range cartItems {
			p, ok := byID[ci.ProductID]
			if !ok {
				//カートに入れた後に商品が消えたケース
				return NewHTTPError(http.StatusNotFound, CodeProductNotFound,
					fmt.Sprintf("product %d not found", ci.ProductID))
			}
			if p.Stock < ci.Quantity {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", p.Name))
			}
			items = append(items, PlaceOrderItemInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}

		o, err := createOrderWithItems(ctx, r, userID, items, byID)
		if err != nil {
			return err
		}

		//カートを空にする
		if err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return errInternal()
		}

		out = o
		return nil
	})

	util.CheckoutLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "internal"
		if he, ok := AsHTTPError(err); ok {
			reason = he.Code
		}
		util.CheckoutFailedTotal.WithLabelValues(reason).Inc()
		return OrderOutput{}, err
	}

	util.CheckoutSuccessTotal.Inc()
	u.logger.Info("checkout completed",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", out.ID),
		zap.String("total", out.Total.String()),
	)

	//commit後に発行。失敗しても注文は成立している。
	if u.events != nil {
		u.events.PublishOrderCreated(ctx, out)
	}
	return out, nil
}
