package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type MySQLCartRepo struct{ db *sql.DB }

func NewMySQLCartRepo(db *sql.DB) *MySQLCartRepo { return &MySQLCartRepo{db: db} }

func (r *MySQLCartRepo) Get(ctx context.Context, owner domain.OwnerKey) (*domain.Cart, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id, quantity, updated_at
FROM cart_lines WHERE owner_key=?`, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart := &domain.Cart{Owner: owner}
	for rows.Next() {
		var (
			l  domain.CartLine
			at time.Time
		)
		if err := rows.Scan(&l.ProductID, &l.Quantity, &at); err != nil {
			return nil, err
		}
		if at.After(cart.UpdatedAt) {
			cart.UpdatedAt = at
		}
		cart.Lines = append(cart.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, nil
	}
	return cart, nil
}

// Save rewrites the owner's lines as a whole inside one transaction.
func (r *MySQLCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	key := cart.Owner.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE owner_key=?`, key); err != nil {
		return err
	}
	for _, l := range cart.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cart_lines (owner_key, product_id, quantity, updated_at)
VALUES (?,?,?,NOW())`, key, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MySQLCartRepo) Delete(ctx context.Context, owner domain.OwnerKey) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE owner_key=?`, owner.String())
	return err
}

// MergeGuestIntoAccount runs the login-time merge as one transaction.
// Both carts' rows are locked first, so a guest mutation racing the
// merge serializes entirely before or after it, never half-applied.
func (r *MySQLCartRepo) MergeGuestIntoAccount(ctx context.Context, guest, account domain.OwnerKey) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	guestLines, err := lockLines(ctx, tx, guest.String())
	if err != nil {
		return nil, err
	}
	accountLines, err := lockLines(ctx, tx, account.String())
	if err != nil {
		return nil, err
	}

	merged := &domain.Cart{Owner: account, Lines: accountLines, UpdatedAt: time.Now().UTC()}
	for _, gl := range guestLines {
		found := false
		for i := range merged.Lines {
			if merged.Lines[i].ProductID == gl.ProductID {
				merged.Lines[i].Quantity += gl.Quantity
				found = true
				break
			}
		}
		if !found {
			merged.Lines = append(merged.Lines, gl)
		}
	}

	// Clamp each merged line to current stock.
	kept := merged.Lines[:0]
	for _, l := range merged.Lines {
		var avail int
		err := tx.QueryRowContext(ctx, `SELECT quantity_on_hand FROM products WHERE id=?`, l.ProductID).Scan(&avail)
		if err != nil {
			return nil, fmt.Errorf("clamp %s: %w", l.ProductID, err)
		}
		if l.Quantity > avail {
			l.Quantity = avail
		}
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	merged.Lines = kept

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE owner_key IN (?,?)`, guest.String(), account.String()); err != nil {
		return nil, err
	}
	for _, l := range merged.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cart_lines (owner_key, product_id, quantity, updated_at)
VALUES (?,?,?,NOW())`, account.String(), l.ProductID, l.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

func lockLines(ctx context.Context, tx *sql.Tx, ownerKey string) ([]domain.CartLine, error) {
	rows, err := tx.QueryContext(ctx, `
SELECT product_id, quantity FROM cart_lines WHERE owner_key=? FOR UPDATE`, ownerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

var _ usecase.CartRepo = (*MySQLCartRepo)(nil)
