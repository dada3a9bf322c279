package outbox_repo

import (
	"context"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

type OutboxRepository interface {
	CreateMessage(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error
	// GetPendingMessages locks up to limit pending rows, skipping rows locked
	// by another processor. It must run inside a transaction.
	GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, querier domain.Querier, ids []string) error
	MarkMessagesAsFailed(ctx context.Context, querier domain.Querier, ids []string) error
}
