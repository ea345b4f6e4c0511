package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// Create inserts the order and its frozen lines in one transaction.
func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id,human_code,owner_key,status,payment_method,total_cents,
  ship_name,ship_phone,ship_email,ship_street,ship_ward,ship_district,ship_province,ship_note,
  created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.HumanCode, o.Owner.String(), o.Status, o.PaymentMethod, o.TotalCents,
		o.Shipping.FullName, o.Shipping.Phone, o.Shipping.Email, o.Shipping.Street,
		o.Shipping.Ward, o.Shipping.District, o.Shipping.Province, o.Shipping.Note,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for _, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO order_lines (order_id,product_id,product_name,quantity,unit_price_cents)
VALUES (?,?,?,?,?)`,
			o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPriceCents); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getWhere(ctx, `id=?`, id)
}

func (r *MySQLOrderRepo) GetByHumanCode(ctx context.Context, code string) (*domain.Order, error) {
	return r.getWhere(ctx, `human_code=?`, code)
}

func (r *MySQLOrderRepo) getWhere(ctx context.Context, cond string, arg any) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,human_code,owner_key,status,payment_method,total_cents,
  ship_name,ship_phone,ship_email,ship_street,ship_ward,ship_district,ship_province,ship_note,
  created_at,updated_at
FROM orders WHERE `+cond, arg)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *MySQLOrderRepo) ListByOwner(ctx context.Context, owner domain.OwnerKey, f usecase.OrderFilter) ([]*domain.Order, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}

	where := `owner_key=?`
	args := []any{owner.String()}
	if f.Status != "" {
		where += ` AND status=?`
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	rows, err := r.db.QueryContext(ctx, `
SELECT id,human_code,owner_key,status,payment_method,total_cents,
  ship_name,ship_phone,ship_email,ship_street,ship_ward,ship_district,ship_province,ship_note,
  created_at,updated_at
FROM orders WHERE `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, o := range orders {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) loadLines(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id,product_name,quantity,unit_price_cents
FROM order_lines WHERE order_id=?`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPriceCents); err != nil {
			return err
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o        domain.Order
		ownerKey string
	)
	if err := row.Scan(&o.ID, &o.HumanCode, &ownerKey, &o.Status, &o.PaymentMethod, &o.TotalCents,
		&o.Shipping.FullName, &o.Shipping.Phone, &o.Shipping.Email, &o.Shipping.Street,
		&o.Shipping.Ward, &o.Shipping.District, &o.Shipping.Province, &o.Shipping.Note,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	owner, err := domain.ParseOwnerKey(ownerKey)
	if err != nil {
		return nil, err
	}
	o.Owner = owner
	return &o, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
