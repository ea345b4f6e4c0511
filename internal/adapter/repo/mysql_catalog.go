package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

// MySQLCatalog reads current price and name from the products table.
type MySQLCatalog struct{ db *sql.DB }

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog { return &MySQLCatalog{db: db} }

func (r *MySQLCatalog) Price(ctx context.Context, productID string) (string, int64, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT name, price_cents FROM products WHERE id=?`, productID)
	var (
		name  string
		price int64
	)
	if err := row.Scan(&name, &price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, domain.ErrProductNotFound
		}
		return "", 0, err
	}
	return name, price, nil
}

var _ usecase.Catalog = (*MySQLCatalog)(nil)
