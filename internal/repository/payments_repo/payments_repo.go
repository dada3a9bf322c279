package payments_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

const paymentColumns = `id, value, payment_method, order_id, external_reference, customer_name,
		customer_document_id, user_id, status, payment_date, updated_at`

type paymentRepository struct{}

func NewPaymentRepository() *paymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Save(ctx context.Context, querier domain.Querier, payment *domain.Payment) error {
	if payment.ID == 0 {
		return r.insert(ctx, querier, payment)
	}
	return r.update(ctx, querier, payment)
}

func (r *paymentRepository) insert(ctx context.Context, querier domain.Querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (value, payment_method, order_id, external_reference, customer_name,
			customer_document_id, user_id, status, payment_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := querier.QueryRowContext(ctx, query,
		payment.Value,
		payment.Method,
		nullInt64(payment.OrderID),
		nullString(payment.ExternalReference),
		payment.CustomerName,
		payment.CustomerDocumentID,
		payment.UserID,
		payment.Status,
		payment.PaymentDate,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) update(ctx context.Context, querier domain.Querier, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET value = $1, payment_method = $2, order_id = $3, external_reference = $4, customer_name = $5,
			customer_document_id = $6, user_id = $7, status = $8, payment_date = $9, updated_at = $10
		WHERE id = $11
	`
	res, err := querier.ExecContext(ctx, query,
		payment.Value,
		payment.Method,
		nullInt64(payment.OrderID),
		nullString(payment.ExternalReference),
		payment.CustomerName,
		payment.CustomerDocumentID,
		payment.UserID,
		payment.Status,
		payment.PaymentDate,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment %d: %w", payment.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for payment update: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: payment with id %d", domain.ErrNotFound, payment.ID)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Payment, error) {
	return r.getOne(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Payment, error) {
	return r.getOne(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (r *paymentRepository) getOne(ctx context.Context, querier domain.Querier, query string, id int64) (*domain.Payment, error) {
	payment, err := scanPayment(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: payment with id %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get payment by id %d: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) List(ctx context.Context, querier domain.Querier) ([]*domain.Payment, error) {
	return r.list(ctx, querier, `SELECT `+paymentColumns+` FROM payments ORDER BY id`)
}

func (r *paymentRepository) ListByStatus(ctx context.Context, querier domain.Querier, status domain.PaymentStatus) ([]*domain.Payment, error) {
	return r.list(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE status = $1 ORDER BY id`, status)
}

func (r *paymentRepository) ListByCustomerDocumentID(ctx context.Context, querier domain.Querier, documentID string) ([]*domain.Payment, error) {
	return r.list(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE customer_document_id = $1 ORDER BY id`, documentID)
}

func (r *paymentRepository) ListByOrderID(ctx context.Context, querier domain.Querier, orderID int64) ([]*domain.Payment, error) {
	return r.list(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY id`, orderID)
}

func (r *paymentRepository) ListByUserID(ctx context.Context, querier domain.Querier, userID int64) ([]*domain.Payment, error) {
	return r.list(ctx, querier, `SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *paymentRepository) list(ctx context.Context, querier domain.Querier, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) Delete(ctx context.Context, querier domain.Querier, id int64) error {
	if _, err := querier.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete payment %d: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	payment := &domain.Payment{}
	var orderID sql.NullInt64
	var externalRef sql.NullString
	err := row.Scan(
		&payment.ID,
		&payment.Value,
		&payment.Method,
		&orderID,
		&externalRef,
		&payment.CustomerName,
		&payment.CustomerDocumentID,
		&payment.UserID,
		&payment.Status,
		&payment.PaymentDate,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if orderID.Valid {
		payment.OrderID = &orderID.Int64
	}
	if externalRef.Valid {
		payment.ExternalReference = &externalRef.String
	}
	return payment, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
