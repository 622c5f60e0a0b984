package events

import (
	"context"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
)

// PointEventPublisher notifies downstream consumers of ledger
// mutations. Publishing is fire-and-forget: implementations log and
// swallow delivery failures, the ledger state is authoritative and is
// never rolled back because a notification could not be delivered.
type PointEventPublisher interface {
	PublishPointsEarned(ctx context.Context, transaction *entities.PointTransaction, balance *entities.PointBalance)
	PublishPointsSpent(ctx context.Context, transaction *entities.PointTransaction, balance *entities.PointBalance)
	PublishPointsExpired(ctx context.Context, transaction *entities.PointTransaction, balance *entities.PointBalance)
	PublishReferralPointsEarned(ctx context.Context, transaction *entities.PointTransaction, balance *entities.PointBalance)
}
