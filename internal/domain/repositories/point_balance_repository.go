package repositories

import (
	"context"

	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/google/uuid"
)

// PointBalanceRepository persists per-user point balances.
//
// Save must perform a version-checked write: a balance whose
// LoadedVersion no longer matches the stored row fails with
// errs.ErrVersionConflict and the caller retries with a fresh read.
type PointBalanceRepository interface {
	Save(context.Context, *entities.PointBalance) error
	FindByUserID(context.Context, uuid.UUID) (*entities.PointBalance, error)
	// FindByUserIDOrCreate returns the user's balance, creating and
	// persisting a zeroed one when absent. Two concurrent creates for
	// the same new user are resolved by the store's uniqueness
	// constraint; the loser gets errs.ErrDataConflict.
	FindByUserIDOrCreate(context.Context, uuid.UUID) (*entities.PointBalance, error)
	DeleteByUserID(context.Context, uuid.UUID) error
}
