package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	Status    string            `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
	Items     []OrderItemOutput `json:"items"`
}

type OrderUsecase struct {
	tx     repo.TransactionManager
	events OrderEventPublisher
}

func NewOrderUsecase(tx repo.TransactionManager, events OrderEventPublisher) *OrderUsecase {
	return &OrderUsecase{tx: tx, events: events}
}

type PlaceOrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	Items []PlaceOrderItemInput
}

// PlaceOrder はリクエストで渡された明細から直接注文を作る。
// 在庫の検証・減算・合計計算のルールはcheckoutと同じで、カートには触らない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "items is required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity < 1 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid item")
		}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ids := make([]int64, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}

		//対象商品を行ロック付きで取得
		products, err := r.Products().FindByIDsForUpdate(ctx, ids)
		if err != nil {
			return errInternal()
		}
		byID := make(map[int64]model.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		//先に全件の在庫を検証する。1つでも足りなければ何も変更しない。
		for _, it := range in.Items {
			p, ok := byID[it.ProductID]
			if !ok {
				return NewHTTPError(http.StatusNotFound, CodeProductNotFound,
					fmt.Sprintf("product %d not found", it.ProductID))
			}
			if p.Stock < it.Quantity {
				return NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", p.Name))
			}
		}

		o, err := createOrderWithItems(ctx, r, userID, in.Items, byID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	if u.events != nil {
		u.events.PublishOrderCreated(ctx, out)
	}
	return out, nil
}

// ListMyOrders は自分の注文だけを新しい順で返す。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, errUnauthorized()
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByUserID(ctx, userID)
		if err != nil {
			return errInternal()
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errInternal()
			}
			out, err := toOrderOutput(ctx, r, o, items)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}
		if err != nil {
			return errInternal()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errInternal()
		}

		out, err = toOrderOutput(ctx, r, o, items)
		return err
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// createOrderWithItems は検証済みの明細から注文・明細を作成し、在庫を減らす。
// トランザクション内からのみ呼ぶ。byIDはロック済み商品のマップ。
func createOrderWithItems(
	ctx context.Context,
	r repo.TxRepos,
	userID int64,
	items []PlaceOrderItemInput,
	byID map[int64]model.Product,
) (OrderOutput, error) {
	//total = Σ quantity × price を銀行丸めで2桁に揃える
	total := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(items))
	outItems := make([]OrderItemOutput, 0, len(items))

	now := time.Now()
	for _, it := range items {
		p := byID[it.ProductID]
		total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))

		//priceは購入時点のスナップショット
		orderItems = append(orderItems, model.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     p.Price,
			CreatedAt: now,
		})
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})
	}
	total = total.RoundBank(2)

	orderID, err := r.Orders().Create(ctx, model.Order{
		UserID:    userID,
		Total:     total,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return OrderOutput{}, errInternal()
	}

	if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
		return OrderOutput{}, errInternal()
	}

	//在庫減算。行ロック済みだが、条件付きUPDATEで二重に守る。
	for _, it := range items {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return OrderOutput{}, errInternal()
		}
		if !ok {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", byID[it.ProductID].Name))
		}
	}

	return OrderOutput{
		ID:        orderID,
		UserID:    userID,
		Status:    string(model.OrderStatusPending),
		Total:     total,
		CreatedAt: now,
		Items:     outItems,
	}, nil
}

// toOrderOutput は商品名を読み取り時点で引き当てる。
// 商品が後から消えていてもエラーにはしない（明細は残る）。
func toOrderOutput(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem) (OrderOutput, error) {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		name := ""
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err == nil {
			name = p.Name
		} else if err != repo.ErrNotFound {
			return OrderOutput{}, errInternal()
		}

		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		Items:     outItems,
	}, nil
}
