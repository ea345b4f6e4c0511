package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/intekaih/toystore-app-sub001/internal/entity"
	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

type MySQLPaymentRepo struct{ db *sql.DB }

func NewMySQLPaymentRepo(db *sql.DB) *MySQLPaymentRepo { return &MySQLPaymentRepo{db: db} }

func (r *MySQLPaymentRepo) CreateAttempt(ctx context.Context, a *domain.PaymentAttempt) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payment_attempts (order_id,txn_ref,raw_params,signature_ok,result_code,created_at)
VALUES (?,?,?,?,?,?)`,
		a.OrderID, a.TxnRef, a.RawParams, a.SignatureOK, a.ResultCode, a.CreatedAt)
	return err
}

// MarkVerified writes the callback verdict exactly once: the guarded
// UPDATE only matches an attempt that has not been verified yet, which
// is what makes a replayed callback a no-op.
func (r *MySQLPaymentRepo) MarkVerified(ctx context.Context, orderID, txnRef string, sigOK bool, resultCode, raw string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE payment_attempts
        SET signature_ok = ?, result_code = ?, raw_params = ?, verified_at = NOW()
        WHERE order_id = ? AND txn_ref = ? AND verified_at IS NULL`,
		sigOK, resultCode, raw, orderID, txnRef,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}

	// No unverified attempt matched: either the callback is a replay,
	// or (gateway quirk) it arrived for a txn_ref we never recorded.
	var verified sql.NullTime
	err = r.db.QueryRowContext(ctx, `
SELECT verified_at FROM payment_attempts WHERE order_id=? AND txn_ref=?`, orderID, txnRef).Scan(&verified)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = r.db.ExecContext(ctx, `
INSERT INTO payment_attempts (order_id,txn_ref,raw_params,signature_ok,result_code,created_at,verified_at)
VALUES (?,?,?,?,?,NOW(),NOW())`,
			orderID, txnRef, raw, sigOK, resultCode)
		if err != nil {
			return false, err
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

var _ usecase.PaymentRepo = (*MySQLPaymentRepo)(nil)
