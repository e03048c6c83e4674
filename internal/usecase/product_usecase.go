package usecase

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int64           `json:"total"`
	Pages int64           `json:"pages"`
}

// ListProducts は商品一覧。pageは1始まり、limitは1〜100に丸める。
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 {
		in.Limit = 12
	}
	if in.Limit > 100 {
		in.Limit = 100
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, errInternal()
	}

	pages := total / int64(in.Limit)
	if total%int64(in.Limit) != 0 {
		pages++
	}

	return ProductListOutput{
		Items: items,
		Page:  in.Page,
		Limit: in.Limit,
		Total: total,
		Pages: pages,
	}, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, errInternal()
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Stock       int64
}

// CreateProduct は管理者用。nameとpriceは必須。
func (u *ProductUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price == nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "name and price are required")
	}
	if in.Price.IsNegative() || in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price and stock must not be negative")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.RoundBank(2),
		Stock:       in.Stock,
	})
	if err != nil {
		return model.Product{}, errInternal()
	}
	return p, nil
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int64
}

// UpdateProduct は部分更新。指定されなかった項目は現状維持。
func (u *ProductUsecase) UpdateProduct(ctx context.Context, productID int64, in UpdateProductInput) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, errInternal()
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must not be negative")
		}
		p.Price = in.Price.RoundBank(2)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "stock must not be negative")
		}
		p.Stock = *in.Stock
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		if err == repo.ErrNotFound {
			return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return model.Product{}, errInternal()
	}
	return p, nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, productID int64) error {
	if err := u.productRepo.Delete(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return errInternal()
	}
	return nil
}
