package interfaces

import (
	"context"

	"github.com/febry-setyawan/loyalty/internal/application/params"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/google/uuid"
)

// PointsService represents all ledger actions exposed to transport.
type PointsService interface {
	EarnPoints(context.Context, *params.EarnPoints) (*params.EarnPointsResult, error)
	SpendPoints(context.Context, *params.SpendPoints) (*params.SpendPointsResult, error)
	GetBalance(context.Context, uuid.UUID) (*entities.PointBalance, error)
	GetEarningRules(context.Context) ([]*entities.EarningRule, error)
}
