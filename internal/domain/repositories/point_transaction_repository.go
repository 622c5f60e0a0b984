package repositories

import (
	"context"
	"time"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/google/uuid"
)

// PointTransactionRepository persists point movement records.
type PointTransactionRepository interface {
	Save(context.Context, *entities.PointTransaction) error
	FindByID(context.Context, uuid.UUID) (*entities.PointTransaction, error)
	FindByUserID(context.Context, uuid.UUID) ([]*entities.PointTransaction, error)
	FindByUserIDAndDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.PointTransaction, error)
	FindPendingTransactions(context.Context) ([]*entities.PointTransaction, error)
	// FindExpired returns processed EARN transactions whose expiry
	// date has passed and which no EXPIRE transaction references yet.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*entities.PointTransaction, error)
	DeleteByID(context.Context, uuid.UUID) error
}
