package usecase

import (
	"context"
	"net/http"

	repo "github.com/Nathan2412/project-api/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// 在庫はここでは検証しない。確定するのはcheckout時だけ、という方針。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
	}
}

// priceは現在のカタログ価格。スナップショットは注文確定時に取る。
type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得。空なら空配列とtotal=0。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}

	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid quantity")
	}

	//商品の存在チェック。在庫はここではクランプしない。
	_, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeProductNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, errInternal()
	}

	//Upsert（同一商品は加算）。アトミックなので並行addでも加算が消えない。
	if _, _, err := u.cartItemRepo.Upsert(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, errInternal()
	}

	return u.buildCartResponse(ctx, userID)
}

// 数量変更
func (u *CartUsecase) UpdateItem(ctx context.Context, userID int64, productID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid quantity")
	}

	if _, err := u.cartItemRepo.UpdateQuantity(ctx, userID, productID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return CartResponse{}, errInternal()
	}

	return u.buildCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, productID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid product_id")
	}

	if err := u.cartItemRepo.DeleteByUserAndProduct(ctx, userID, productID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return errInternal()
	}
	return nil
}

// カートを空にする
func (u *CartUsecase) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}

	if err := u.cartItemRepo.ClearByUserID(ctx, userID); err != nil {
		return errInternal()
	}
	return nil
}

// 明細をまとめてCartResponseを作る。totalは現在価格で計算する。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errInternal()
	}

	respItems := make([]CartItemResponse, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err == repo.ErrNotFound {
			//消えた商品は表示しない
			continue
		}
		if err != nil {
			return CartResponse{}, errInternal()
		}

		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
		})

		total = total.Add(p.Price.Mul(decimal.NewFromInt(it.Quantity)))
	}

	return CartResponse{Items: respItems, Total: total.RoundBank(2)}, nil
}
