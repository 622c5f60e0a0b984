package params

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarnPoints is the plain-data input of the earn-points flow.
type EarnPoints struct {
	UserID            uuid.UUID
	TransactionAmount decimal.Decimal
	EarningType       string
	Description       string
	ReferenceID       *uuid.UUID
	UserTier          string
	BonusMultiplier   *decimal.Decimal
}

// EarnPointsResult reports the outcome of a successful earn.
type EarnPointsResult struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	PointsEarned  int64
	NewBalance    int64
	Message       string
}
