package usecase_test

import (
	"context"
	"sort"
	"testing"

	"github.com/Nathan2412/project-api/internal/domain/model"
	repo "github.com/Nathan2412/project-api/internal/repository"

	"github.com/shopspring/decimal"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func mustDecInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// インメモリのfake store。
// WithinTxはコピーの上でfnを実行し、成功時だけ反映するので
// rollback時に部分的な状態が残らないことをそのまま検証できる。

type memState struct {
	products   map[int64]model.Product
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem

	nextProductID   int64
	nextCartItemID  int64
	nextOrderID     int64
	nextOrderItemID int64
}

func newMemState() *memState {
	return &memState{
		products:        map[int64]model.Product{},
		cartItems:       map[int64]model.CartItem{},
		orders:          map[int64]model.Order{},
		orderItems:      map[int64]model.OrderItem{},
		nextProductID:   1,
		nextCartItemID:  1,
		nextOrderID:     1,
		nextOrderItemID: 1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	c.nextProductID = s.nextProductID
	c.nextCartItemID = s.nextCartItemID
	c.nextOrderID = s.nextOrderID
	c.nextOrderItemID = s.nextOrderItemID
	return c
}

func (s *memState) addProduct(id int64, name string, price string, stock int64) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		panic(err)
	}
	s.products[id] = model.Product{ID: id, Name: name, Price: d, Stock: stock}
	if id >= s.nextProductID {
		s.nextProductID = id + 1
	}
}

func (s *memState) addCartItem(userID, productID, qty int64) {
	id := s.nextCartItemID
	s.nextCartItemID++
	s.cartItems[id] = model.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: qty}
}

func (s *memState) cartOf(userID int64) []model.CartItem {
	var out []model.CartItem
	for _, it := range s.cartItems {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memState) itemsOf(orderID int64) []model.OrderItem {
	var out []model.OrderItem
	for _, it := range s.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- repo implementations ---

type memProducts struct{ s *memState }

func (r *memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProducts) FindByIDsForUpdate(ctx context.Context, ids []int64) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if p.ID == 0 {
		p.ID = r.s.nextProductID
		r.s.nextProductID++
	}
	r.s.products[p.ID] = p
	return p, nil
}

func (r *memProducts) Update(ctx context.Context, p model.Product) error {
	if _, ok := r.s.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.products[p.ID] = p
	return nil
}

func (r *memProducts) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

type memInventory struct{ s *memState }

func (r *memInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r *memInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	r.s.products[productID] = p
	return nil
}

func (r *memInventory) SetStock(ctx context.Context, productID int64, newStock int64) error {
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	r.s.products[productID] = p
	return nil
}

type memCartItems struct{ s *memState }

func (r *memCartItems) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return r.s.cartOf(userID), nil
}

func (r *memCartItems) ListByUserIDForUpdate(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return r.s.cartOf(userID), nil
}

func (r *memCartItems) Upsert(ctx context.Context, userID int64, productID int64, addQty int64) (model.CartItem, bool, error) {
	for id, it := range r.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity += addQty
			r.s.cartItems[id] = it
			return it, false, nil
		}
	}
	id := r.s.nextCartItemID
	r.s.nextCartItemID++
	it := model.CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: addQty}
	r.s.cartItems[id] = it
	return it, true, nil
}

func (r *memCartItems) UpdateQuantity(ctx context.Context, userID int64, productID int64, qty int64) (model.CartItem, error) {
	for id, it := range r.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity = qty
			r.s.cartItems[id] = it
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r *memCartItems) DeleteByUserAndProduct(ctx context.Context, userID int64, productID int64) error {
	for id, it := range r.s.cartItems {
		if it.UserID == userID && it.ProductID == productID {
			delete(r.s.cartItems, id)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r *memCartItems) ClearByUserID(ctx context.Context, userID int64) error {
	for id, it := range r.s.cartItems {
		if it.UserID == userID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

type memOrders struct{ s *memState }

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	id := r.s.nextOrderID
	r.s.nextOrderID++
	order.ID = id
	r.s.orders[id] = order
	return id, nil
}

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

type memOrderItems struct{ s *memState }

func (r *memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		id := r.s.nextOrderItemID
		r.s.nextOrderItemID++
		it.ID = id
		it.OrderID = orderID
		r.s.orderItems[id] = it
	}
	return nil
}

func (r *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return r.s.itemsOf(orderID), nil
}

// --- TxRepos / TransactionManager ---

type memTxRepos struct{ s *memState }

func (r *memTxRepos) Orders() repo.OrderRepository         { return &memOrders{s: r.s} }
func (r *memTxRepos) OrderItems() repo.OrderItemRepository { return &memOrderItems{s: r.s} }
func (r *memTxRepos) CartItems() repo.CartItemRepository   { return &memCartItems{s: r.s} }
func (r *memTxRepos) Products() repo.ProductRepository     { return &memProducts{s: r.s} }
func (r *memTxRepos) Inventory() repo.InventoryRepository  { return &memInventory{s: r.s} }

type memTxManager struct {
	state *memState
}

func (tm *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	work := tm.state.clone()
	if err := fn(&memTxRepos{s: work}); err != nil {
		return err
	}
	*tm.state = *work
	return nil
}
