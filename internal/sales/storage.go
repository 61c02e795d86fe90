package sales

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Inventory owns product existence and stock levels.
type Inventory interface {
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	// Upsert overwrites price and quantity of the product named name, or
	// creates it with a fresh ID.
	Upsert(ctx context.Context, name string, unitPrice decimal.Decimal, quantity int) (*Product, error)
	// AdjustQuantity applies quantity += delta atomically. It fails with
	// ErrInsufficientStock if the result would be negative and with
	// ErrInvalidInput if it would exceed MaxQuantity.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*Product, error)
	Delete(ctx context.Context, id int64) error
	// List returns all products ordered by ID.
	List(ctx context.Context) ([]Product, error)
}

// Ledger is the append-only history of completed sales.
type Ledger interface {
	Append(ctx context.Context, sale Sale) (*Sale, error)
	// ListWithProductNames returns every sale, newest first, joined with the
	// current product name or the name captured at sale time.
	ListWithProductNames(ctx context.Context) ([]SaleView, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
}

// Tx is the view of the storage inside a unit of work.
type Tx interface {
	Inventory
	Ledger
}

// Storage is the main interface for our inventory and ledger storage layer.
type Storage interface {
	Tx
	// InTx runs fn in a unit of work. Every mutation made through tx is
	// committed if fn returns nil and rolled back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// LocalStorage provides an in-memory implementation of Storage. Mutations
// are serialized by a single lock; reads may run concurrently.
type LocalStorage struct {
	mu    sync.RWMutex
	state *memState
}

// NewLocalStorage instantiates a new LocalStorage with no products or sales.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		state: &memState{
			products: map[int64]*Product{},
			byName:   map[string]int64{},
		},
	}
}

type memState struct {
	products      map[int64]*Product
	byName        map[string]int64
	sales         []Sale
	lastProductID int64
	lastSaleID    int64
}

// InTx implements Storage.
func (l *LocalStorage) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &localTx{state: l.state}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (l *LocalStorage) read() *localTx {
	return &localTx{state: l.state}
}

// FindByID retrieves a product by ID.
// Returns ErrProductNotFound if the product is not found.
func (l *LocalStorage) FindByID(ctx context.Context, id int64) (*Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read().FindByID(ctx, id)
}

func (l *LocalStorage) FindByName(ctx context.Context, name string) (*Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read().FindByName(ctx, name)
}

func (l *LocalStorage) Upsert(ctx context.Context, name string, unitPrice decimal.Decimal, quantity int) (*Product, error) {
	var p *Product
	err := l.InTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.Upsert(ctx, name, unitPrice, quantity)
		return err
	})
	return p, err
}

func (l *LocalStorage) AdjustQuantity(ctx context.Context, id int64, delta int) (*Product, error) {
	var p *Product
	err := l.InTx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.AdjustQuantity(ctx, id, delta)
		return err
	})
	return p, err
}

func (l *LocalStorage) Delete(ctx context.Context, id int64) error {
	return l.InTx(ctx, func(tx Tx) error {
		return tx.Delete(ctx, id)
	})
}

func (l *LocalStorage) List(ctx context.Context) ([]Product, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read().List(ctx)
}

func (l *LocalStorage) Append(ctx context.Context, sale Sale) (*Sale, error) {
	var s *Sale
	err := l.InTx(ctx, func(tx Tx) error {
		var err error
		s, err = tx.Append(ctx, sale)
		return err
	})
	return s, err
}

func (l *LocalStorage) ListWithProductNames(ctx context.Context) ([]SaleView, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read().ListWithProductNames(ctx)
}

func (l *LocalStorage) CountByProduct(ctx context.Context, productID int64) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.read().CountByProduct(ctx, productID)
}

// Close is a no-op for the in-memory storage.
func (l *LocalStorage) Close() error {
	return nil
}

// localTx operates on memState while the caller holds the storage lock.
// Each mutation records how to undo itself.
type localTx struct {
	state   *memState
	journal []func()
}

func (t *localTx) record(undo func()) {
	t.journal = append(t.journal, undo)
}

func (t *localTx) rollback() {
	for i := len(t.journal) - 1; i >= 0; i-- {
		t.journal[i]()
	}
	t.journal = nil
}

func (t *localTx) FindByID(_ context.Context, id int64) (*Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (t *localTx) FindByName(ctx context.Context, name string) (*Product, error) {
	id, ok := t.state.byName[name]
	if !ok {
		return nil, ErrProductNotFound
	}
	return t.FindByID(ctx, id)
}

func (t *localTx) Upsert(_ context.Context, name string, unitPrice decimal.Decimal, quantity int) (*Product, error) {
	if quantity < 0 || quantity > MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", ErrInvalidInput, MaxQuantity)
	}
	s := t.state
	if id, ok := s.byName[name]; ok {
		p := s.products[id]
		prev := *p
		p.UnitPrice = unitPrice
		p.QuantityOnHand = quantity
		t.record(func() { *p = prev })
		cp := *p
		return &cp, nil
	}

	s.lastProductID++
	p := &Product{
		ID:             s.lastProductID,
		Name:           name,
		UnitPrice:      unitPrice,
		QuantityOnHand: quantity,
	}
	s.products[p.ID] = p
	s.byName[name] = p.ID
	// IDs are never handed out twice, so the counter stays advanced on rollback.
	t.record(func() {
		delete(s.products, p.ID)
		delete(s.byName, name)
	})
	cp := *p
	return &cp, nil
}

func (t *localTx) AdjustQuantity(_ context.Context, id int64, delta int) (*Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if err := CheckStockLevel(p.QuantityOnHand, delta); err != nil {
		return nil, err
	}
	prev := p.QuantityOnHand
	p.QuantityOnHand += delta
	t.record(func() { p.QuantityOnHand = prev })
	cp := *p
	return &cp, nil
}

func (t *localTx) Delete(_ context.Context, id int64) error {
	s := t.state
	p, ok := s.products[id]
	if !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	delete(s.byName, p.Name)
	t.record(func() {
		s.products[id] = p
		s.byName[p.Name] = id
	})
	return nil
}

func (t *localTx) List(_ context.Context) ([]Product, error) {
	products := make([]Product, 0, len(t.state.products))
	for _, p := range t.state.products {
		products = append(products, *p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (t *localTx) Append(_ context.Context, sale Sale) (*Sale, error) {
	s := t.state
	s.lastSaleID++
	sale.ID = s.lastSaleID
	s.sales = append(s.sales, sale)
	n := len(s.sales)
	t.record(func() { s.sales = s.sales[:n-1] })
	return &sale, nil
}

func (t *localTx) ListWithProductNames(_ context.Context) ([]SaleView, error) {
	views := make([]SaleView, 0, len(t.state.sales))
	for _, sale := range t.state.sales {
		name := sale.ProductName
		if p, ok := t.state.products[sale.ProductID]; ok {
			name = p.Name
		}
		if name == "" {
			name = DeletedProductName
		}
		views = append(views, SaleView{Sale: sale, ProductName: name})
	}
	sort.SliceStable(views, func(i, j int) bool {
		if !views[i].SoldAt.Equal(views[j].SoldAt) {
			return views[i].SoldAt.After(views[j].SoldAt)
		}
		return views[i].ID > views[j].ID
	})
	return views, nil
}

func (t *localTx) CountByProduct(_ context.Context, productID int64) (int, error) {
	n := 0
	for _, sale := range t.state.sales {
		if sale.ProductID == productID {
			n++
		}
	}
	return n, nil
}
