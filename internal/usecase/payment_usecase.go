package usecase

import (
	"context"
	"net/http"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"
	"github.com/Nathan2412/project-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var decimalHundred = decimal.NewFromInt(100)

// 決済プロバイダとのやり取りは境界の外。
// ここはintentの払い出しとpending→paidの遷移だけを持つ。
type PaymentUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	idGen  IDGenerator
	events OrderEventPublisher
	logger *zap.Logger
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	idGen IDGenerator,
	events OrderEventPublisher,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, orders: orders, idGen: idGen, events: events, logger: logger}
}

type PaymentIntentOutput struct {
	PaymentRef  string `json:"payment_ref"`
	OrderID     int64  `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// CreateIntent は支払い参照を払い出す。
// 自分の注文でなければ404、支払い済みならALREADY_PAID。
func (u *PaymentUsecase) CreateIntent(ctx context.Context, userID int64, orderID int64) (PaymentIntentOutput, error) {
	if userID <= 0 {
		return PaymentIntentOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "order_id is required")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
	}
	if err != nil {
		return PaymentIntentOutput{}, errInternal()
	}
	if o.UserID != userID {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
	}
	if o.Status == model.OrderStatusPaid {
		return PaymentIntentOutput{}, NewHTTPError(http.StatusBadRequest, CodeAlreadyPaid, "order already paid")
	}

	//金額はセント単位で渡す
	cents := o.Total.Mul(decimalHundred).IntPart()

	return PaymentIntentOutput{
		PaymentRef:  u.idGen.NewID(),
		OrderID:     o.ID,
		AmountCents: cents,
		Currency:    "eur",
	}, nil
}

// MarkOrderPaid はpending→paidの遷移。冪等で、支払い済みへの再適用はno-op。
// 署名検証は境界（handler）側で済んでいる前提。
func (u *PaymentUsecase) MarkOrderPaid(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "order_id is required")
	}

	var out OrderOutput
	transitioned := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックして読んでから遷移する。並行する通知同士はここで直列化される。
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
		}
		if err != nil {
			return errInternal()
		}

		if o.Status != model.OrderStatusPaid {
			if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusPaid); err != nil {
				return errInternal()
			}
			o.Status = model.OrderStatusPaid
			transitioned = true
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

	if transitioned {
		util.OrdersPaidTotal.Inc()
		u.logger.Info("order marked paid", zap.Int64("order_id", orderID))
		if u.events != nil {
			u.events.PublishOrderPaid(ctx, out)
		}
	}
	return out, nil
}

// ConfirmManual は開発用の手動確定。自分の注文に対してのみ使える。
func (u *PaymentUsecase) ConfirmManual(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, errInternal()
	}
	if o.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, CodeOrderNotFound, "not found")
	}

	return u.MarkOrderPaid(ctx, orderID)
}
