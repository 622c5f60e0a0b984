package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarnPoints defines parameters for EarnPoints.
type EarnPoints struct {
	UserID            uuid.UUID        `json:"user_id"`
	TransactionAmount decimal.Decimal  `json:"transaction_amount"`
	EarningType       string           `json:"earning_type"`
	Description       string           `json:"description"`
	ReferenceID       *uuid.UUID       `json:"reference_id,omitempty"`
	UserTier          string           `json:"user_tier,omitempty"`
	BonusMultiplier   *decimal.Decimal `json:"bonus_multiplier,omitempty"`
}

// SpendPoints defines parameters for SpendPoints.
type SpendPoints struct {
	UserID      uuid.UUID  `json:"user_id"`
	Points      int64      `json:"points"`
	Source      string     `json:"source"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	Description string     `json:"description"`
}

// EarnReferralPoints defines parameters for EarnReferralPoints.
type EarnReferralPoints struct {
	UserID         uuid.UUID `json:"user_id"`
	ReferredUserID uuid.UUID `json:"referred_user_id"`
}
