package payments_repo

import (
	"context"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

type PaymentRepository interface {
	// Save inserts the payment when its ID is zero, assigning the generated
	// ID, and overwrites the stored row otherwise.
	Save(ctx context.Context, querier domain.Querier, payment *domain.Payment) error
	GetByID(ctx context.Context, querier domain.Querier, id int64) (*domain.Payment, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, querier domain.Querier, id int64) (*domain.Payment, error)
	List(ctx context.Context, querier domain.Querier) ([]*domain.Payment, error)
	ListByStatus(ctx context.Context, querier domain.Querier, status domain.PaymentStatus) ([]*domain.Payment, error)
	ListByCustomerDocumentID(ctx context.Context, querier domain.Querier, documentID string) ([]*domain.Payment, error)
	ListByOrderID(ctx context.Context, querier domain.Querier, orderID int64) ([]*domain.Payment, error)
	ListByUserID(ctx context.Context, querier domain.Querier, userID int64) ([]*domain.Payment, error)
	// Delete removes the row. Deleting a missing id is not an error.
	Delete(ctx context.Context, querier domain.Querier, id int64) error
}
