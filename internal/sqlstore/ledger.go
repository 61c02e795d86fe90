package sqlstore

import (
	"context"
	"fmt"
	"time"

	"api_pos/internal/sales"
)

// timestampLayout is ISO 8601 with a fixed width so text order matches
// time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (c *conn) Append(ctx context.Context, sale sales.Sale) (*sales.Sale, error) {
	sale.SoldAt = sale.SoldAt.UTC()
	err := c.queryRow(ctx, `
		INSERT INTO sales (product_id, product_name, quantity_sold, total_price, sale_timestamp)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		sale.ProductID, sale.ProductName, sale.QuantitySold, sale.TotalPrice, sale.SoldAt.Format(timestampLayout),
	).Scan(&sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to append sale: %w", err)
	}
	return &sale, nil
}

func (c *conn) ListWithProductNames(ctx context.Context) ([]sales.SaleView, error) {
	rows, err := c.query(ctx, `
		SELECT s.id, s.product_id, s.product_name, s.quantity_sold, s.total_price, s.sale_timestamp,
			COALESCE(p.name, s.product_name)
		FROM sales s
		LEFT JOIN products p ON p.id = s.product_id
		ORDER BY s.sale_timestamp DESC, s.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	views := make([]sales.SaleView, 0)
	for rows.Next() {
		var (
			v  sales.SaleView
			ts string
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Sale.ProductName, &v.QuantitySold, &v.TotalPrice, &ts, &v.ProductName); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if v.SoldAt, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("sale %d has malformed timestamp %q: %w", v.ID, ts, err)
		}
		if v.ProductName == "" {
			v.ProductName = sales.DeletedProductName
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (c *conn) CountByProduct(ctx context.Context, productID int64) (int, error) {
	var n int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM sales WHERE product_id = ?`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sales of product %d: %w", productID, err)
	}
	return n, nil
}

func (s *Store) Append(ctx context.Context, sale sales.Sale) (*sales.Sale, error) {
	return s.conn().Append(ctx, sale)
}

func (s *Store) ListWithProductNames(ctx context.Context) ([]sales.SaleView, error) {
	return s.conn().ListWithProductNames(ctx)
}

func (s *Store) CountByProduct(ctx context.Context, productID int64) (int, error) {
	return s.conn().CountByProduct(ctx, productID)
}
