package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "api_pos/internal/sales"

// ProductCache keeps a snapshot of the product list between writes.
type ProductCache interface {
	GetProducts(ctx context.Context) ([]Product, bool, error)
	SetProducts(ctx context.Context, products []Product) error
	Invalidate(ctx context.Context) error
}

// Service is the transaction engine: the only component that mutates the
// inventory and the ledger together.
type Service struct {
	storage Storage
	cache   ProductCache
	locks   *productLocks
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time

	// cacheMu orders cache fills against invalidations. cacheGen is bumped
	// by every committed write.
	cacheMu  sync.Mutex
	cacheGen uint64
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithCache puts cache in front of product list reads.
func WithCache(cache ProductCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithClock overrides the clock used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	s := &Service{
		storage: storage,
		locks:   newProductLocks(),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SellUnits sells quantity units of a product. The stock check, the
// decrement and the ledger append happen under the product's lock inside a
// single unit of work, so either the whole sale lands or nothing changes.
func (s *Service) SellUnits(ctx context.Context, productID int64, quantity int) (*Sale, error) {
	return s.sell(ctx, productID, func() (int, error) {
		if quantity <= 0 {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
		}
		return quantity, nil
	})
}

// Sell is SellUnits for a quantity typed by the user. The product is looked
// up before the quantity is parsed, so an unknown product wins over a bad
// quantity.
func (s *Service) Sell(ctx context.Context, productID int64, quantity string) (*Sale, error) {
	return s.sell(ctx, productID, func() (int, error) {
		return ParseSaleQuantity(quantity)
	})
}

func (s *Service) sell(ctx context.Context, productID int64, quantity func() (int, error)) (*Sale, error) {
	ctx, span := s.tracer.Start(ctx, "sales.SellUnits", trace.WithAttributes(
		attribute.Int64("product.id", productID),
	))
	defer span.End()

	unlock := s.locks.lock(productID)
	defer unlock()

	var (
		sale *Sale
		qty  int
	)
	err := s.storage.InTx(ctx, func(tx Tx) error {
		product, err := tx.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if qty, err = quantity(); err != nil {
			return err
		}
		if qty > product.QuantityOnHand {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, product.QuantityOnHand, qty)
		}

		total := product.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		if _, err := tx.AdjustQuantity(ctx, productID, -qty); err != nil {
			return err
		}
		sale, err = tx.Append(ctx, Sale{
			ProductID:    productID,
			ProductName:  product.Name,
			QuantitySold: qty,
			TotalPrice:   total,
			SoldAt:       s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return nil, s.fail(span, "sell units failed", err,
			zap.Int64("product_id", productID),
			zap.Int("quantity", qty),
		)
	}

	s.invalidate(ctx)
	span.SetAttributes(
		attribute.Int("sale.quantity", qty),
		attribute.Int64("sale.id", sale.ID),
		attribute.String("sale.total", sale.TotalPrice.String()),
	)
	span.SetStatus(codes.Ok, "sale recorded")
	s.logger.Info("sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", qty),
		zap.String("total", sale.TotalPrice.String()),
	)
	return sale, nil
}

// UpsertProduct creates the product named name or overwrites its price and
// quantity. The ledger is not touched.
func (s *Service) UpsertProduct(ctx context.Context, name, price, quantity string) (*Product, error) {
	ctx, span := s.tracer.Start(ctx, "sales.UpsertProduct")
	defer span.End()

	parsedName, err := ParseName(name)
	if err != nil {
		return nil, s.fail(span, "upsert product rejected", err, zap.String("name", name))
	}
	parsedPrice, err := ParsePrice(price)
	if err != nil {
		return nil, s.fail(span, "upsert product rejected", err, zap.String("price", price))
	}
	parsedQty, err := ParseQuantity(quantity)
	if err != nil {
		return nil, s.fail(span, "upsert product rejected", err, zap.String("quantity", quantity))
	}

	var product *Product
	err = s.storage.InTx(ctx, func(tx Tx) error {
		var err error
		product, err = tx.Upsert(ctx, parsedName, parsedPrice, parsedQty)
		return err
	})
	if err != nil {
		return nil, s.fail(span, "upsert product failed", err, zap.String("name", parsedName))
	}

	s.invalidate(ctx)
	span.SetAttributes(attribute.Int64("product.id", product.ID))
	span.SetStatus(codes.Ok, "product stored")
	s.logger.Info("product stored",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
		zap.String("unit_price", product.UnitPrice.String()),
		zap.Int("quantity", product.QuantityOnHand),
	)
	return product, nil
}

// RestockProduct applies a signed stock adjustment to a product.
func (s *Service) RestockProduct(ctx context.Context, productID int64, delta string) (*Product, error) {
	ctx, span := s.tracer.Start(ctx, "sales.RestockProduct", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	n, err := ParseDelta(delta)
	if err != nil {
		return nil, s.fail(span, "restock rejected", err, zap.Int64("product_id", productID))
	}
	if n == 0 {
		return nil, s.fail(span, "restock rejected", fmt.Errorf("%w: adjustment must not be zero", ErrInvalidInput), zap.Int64("product_id", productID))
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	var product *Product
	err = s.storage.InTx(ctx, func(tx Tx) error {
		var err error
		product, err = tx.AdjustQuantity(ctx, productID, n)
		return err
	})
	if err != nil {
		return nil, s.fail(span, "restock failed", err, zap.Int64("product_id", productID), zap.Int("delta", n))
	}

	s.invalidate(ctx)
	span.SetStatus(codes.Ok, "stock adjusted")
	s.logger.Info("stock adjusted",
		zap.Int64("product_id", productID),
		zap.Int("delta", n),
		zap.Int("quantity", product.QuantityOnHand),
	)
	return product, nil
}

// DeleteProduct removes a product that no sale refers to.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "sales.DeleteProduct", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	unlock := s.locks.lock(productID)
	defer unlock()

	err := s.storage.InTx(ctx, func(tx Tx) error {
		if _, err := tx.FindByID(ctx, productID); err != nil {
			return err
		}
		n, err := tx.CountByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %d sale(s)", ErrProductInUse, n)
		}
		return tx.Delete(ctx, productID)
	})
	if err != nil {
		return s.fail(span, "delete product failed", err, zap.Int64("product_id", productID))
	}

	s.invalidate(ctx)
	span.SetStatus(codes.Ok, "product deleted")
	s.logger.Info("product deleted", zap.Int64("product_id", productID))
	return nil
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	p, err := s.storage.FindByID(ctx, productID)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// ListProducts returns every product ordered by ID, from the cache when
// one is configured and warm. A list read while a write committed is
// returned but not cached.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	var gen uint64
	if s.cache != nil {
		products, ok, err := s.cache.GetProducts(ctx)
		if err != nil {
			s.logger.Warn("product cache read failed", zap.Error(err))
		} else if ok {
			return products, nil
		}
		gen = s.generation()
	}

	products, err := s.storage.List(ctx)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, classify(err)
	}

	if s.cache != nil {
		s.fill(ctx, gen, products)
	}
	return products, nil
}

// ListSales returns the sales history, newest first, with summary metadata.
// A zero productID returns sales of every product.
func (s *Service) ListSales(ctx context.Context, productID int64) ([]SaleView, SalesMetadata, error) {
	all, err := s.storage.ListWithProductNames(ctx)
	if err != nil {
		s.logger.Error("failed to list sales", zap.Error(err))
		return nil, SalesMetadata{}, classify(err)
	}

	results := make([]SaleView, 0, len(all))
	metadata := SalesMetadata{TotalAmount: decimal.Zero}
	for _, sale := range all {
		if productID != 0 && sale.ProductID != productID {
			continue
		}
		results = append(results, sale)
		metadata.Count++
		metadata.UnitsSold += sale.QuantitySold
		metadata.TotalAmount = metadata.TotalAmount.Add(sale.TotalPrice)
	}

	s.logger.Debug("sales listed",
		zap.Int64("product_filter", productID),
		zap.Int("results_count", len(results)),
	)
	return results, metadata, nil
}

func (s *Service) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fill stores products in the cache unless a write committed since gen was
// taken.
func (s *Service) fill(ctx context.Context, gen uint64, products []Product) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cacheGen != gen {
		s.logger.Debug("product list changed while reading, not cached")
		return
	}
	if err := s.cache.SetProducts(ctx, products); err != nil {
		s.logger.Warn("product cache write failed", zap.Error(err))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cacheGen++
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}

// fail classifies err, records it on the span and logs it. Rejections are
// logged as warnings, storage failures as errors.
func (s *Service) fail(span trace.Span, msg string, err error, fields ...zap.Field) error {
	err = classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	fields = append(fields, zap.Error(err))
	if errors.Is(err, ErrStorage) {
		s.logger.Error(msg, fields...)
	} else {
		s.logger.Warn(msg, fields...)
	}
	return err
}

// classify wraps anything that is not a domain error or a context error
// as ErrStorage.
func classify(err error) error {
	if isDomainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
