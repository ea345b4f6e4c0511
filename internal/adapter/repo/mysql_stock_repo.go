package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

// MySQLStockLedger is the single correctness boundary against
// oversell: the decrement is one conditional UPDATE, never a
// read-then-write in application code.
type MySQLStockLedger struct{ db *sql.DB }

func NewMySQLStockLedger(db *sql.DB) *MySQLStockLedger { return &MySQLStockLedger{db: db} }

func (r *MySQLStockLedger) CheckAvailable(ctx context.Context, productID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT quantity_on_hand FROM products WHERE id=?`, productID)
	var qty int
	if err := row.Scan(&qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *MySQLStockLedger) TryDecrement(ctx context.Context, productID string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE products
        SET quantity_on_hand = quantity_on_hand - ?, updated_at = NOW()
        WHERE id = ? AND quantity_on_hand >= ?`,
		qty, productID, qty,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (missing product or not enough stock)
	return rows > 0, nil
}

func (r *MySQLStockLedger) Release(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE products
        SET quantity_on_hand = quantity_on_hand + ?, updated_at = NOW()
        WHERE id = ?`,
		qty, productID,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

var _ usecase.StockLedger = (*MySQLStockLedger)(nil)
