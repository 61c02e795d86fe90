package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/sales"

	"github.com/shopspring/decimal"
)

const productColumns = "id, name, unit_price, quantity_on_hand"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*sales.Product, error) {
	var p sales.Product
	if err := row.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.QuantityOnHand); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sales.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (c *conn) FindByID(ctx context.Context, id int64) (*sales.Product, error) {
	return scanProduct(c.queryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
}

func (c *conn) FindByName(ctx context.Context, name string) (*sales.Product, error) {
	return scanProduct(c.queryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE name = ?`, name))
}

func (c *conn) Upsert(ctx context.Context, name string, unitPrice decimal.Decimal, quantity int) (*sales.Product, error) {
	if quantity < 0 || quantity > sales.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", sales.ErrInvalidInput, sales.MaxQuantity)
	}
	p, err := scanProduct(c.queryRow(ctx, `
		INSERT INTO products (name, unit_price, quantity_on_hand)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			unit_price = excluded.unit_price,
			quantity_on_hand = excluded.quantity_on_hand
		RETURNING `+productColumns,
		name, unitPrice, quantity))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product %q: %w", name, err)
	}
	return p, nil
}

// AdjustQuantity applies the delta with a conditional update so the stock
// bounds hold even against writers outside this process.
func (c *conn) AdjustQuantity(ctx context.Context, id int64, delta int) (*sales.Product, error) {
	if delta > sales.MaxQuantity || delta < -sales.MaxQuantity {
		return nil, sales.CheckStockLevel(0, delta)
	}

	p, err := scanProduct(c.queryRow(ctx, `
		UPDATE products
		SET quantity_on_hand = quantity_on_hand + ?
		WHERE id = ? AND CAST(quantity_on_hand AS BIGINT) + ? BETWEEN 0 AND ?
		RETURNING `+productColumns,
		delta, id, delta, sales.MaxQuantity))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sales.ErrProductNotFound) {
		return nil, fmt.Errorf("failed to adjust quantity of product %d: %w", id, err)
	}

	// No row matched: the product is gone or the new level is out of bounds.
	current, err := c.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sales.CheckStockLevel(current.QuantityOnHand, delta); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("failed to adjust quantity of product %d: row changed concurrently", id)
}

func (c *conn) Delete(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return sales.ErrProductInUse
		}
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if n == 0 {
		return sales.ErrProductNotFound
	}
	return nil
}

func (c *conn) List(ctx context.Context) ([]sales.Product, error) {
	rows, err := c.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]sales.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *Store) FindByID(ctx context.Context, id int64) (*sales.Product, error) {
	return s.conn().FindByID(ctx, id)
}

func (s *Store) FindByName(ctx context.Context, name string) (*sales.Product, error) {
	return s.conn().FindByName(ctx, name)
}

func (s *Store) Upsert(ctx context.Context, name string, unitPrice decimal.Decimal, quantity int) (*sales.Product, error) {
	return s.conn().Upsert(ctx, name, unitPrice, quantity)
}

func (s *Store) AdjustQuantity(ctx context.Context, id int64, delta int) (*sales.Product, error) {
	return s.conn().AdjustQuantity(ctx, id, delta)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.conn().Delete(ctx, id)
}

func (s *Store) List(ctx context.Context) ([]sales.Product, error) {
	return s.conn().List(ctx)
}
