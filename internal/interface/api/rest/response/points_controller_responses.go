package response

import (
	"time"

	"github.com/febry-setyawan/loyalty/internal/application/params"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/google/uuid"
)

// EarnPoints is the payload returned by the earn and referral endpoints.
type EarnPoints struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	PointsEarned  int64     `json:"points_earned"`
	NewBalance    int64     `json:"new_balance"`
	Message       string    `json:"message"`
}

func NewEarnPoints(res *params.EarnPointsResult) EarnPoints {
	return EarnPoints{
		TransactionID: res.TransactionID,
		UserID:        res.UserID,
		PointsEarned:  res.PointsEarned,
		NewBalance:    res.NewBalance,
		Message:       res.Message,
	}
}

// SpendPoints is the payload returned by the spend endpoint.
type SpendPoints struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	PointsSpent   int64     `json:"points_spent"`
	NewBalance    int64     `json:"new_balance"`
	Message       string    `json:"message"`
}

func NewSpendPoints(res *params.SpendPointsResult) SpendPoints {
	return SpendPoints{
		TransactionID: res.TransactionID,
		UserID:        res.UserID,
		PointsSpent:   res.PointsSpent,
		NewBalance:    res.NewBalance,
		Message:       res.Message,
	}
}

// GetBalance is the payload returned by the balance endpoint.
type GetBalance struct {
	UserID          uuid.UUID `json:"user_id"`
	TotalPoints     int64     `json:"total_points"`
	AvailablePoints int64     `json:"available_points"`
	PendingPoints   int64     `json:"pending_points"`
	LifetimeEarned  int64     `json:"lifetime_earned"`
	LifetimeSpent   int64     `json:"lifetime_spent"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewGetBalance(balance *entities.PointBalance) GetBalance {
	return GetBalance{
		UserID:          balance.UserID(),
		TotalPoints:     balance.TotalPoints().Int64(),
		AvailablePoints: balance.AvailablePoints().Int64(),
		PendingPoints:   balance.PendingPoints().Int64(),
		LifetimeEarned:  balance.LifetimeEarned().Int64(),
		LifetimeSpent:   balance.LifetimeSpent().Int64(),
		UpdatedAt:       balance.UpdatedAt(),
	}
}

// GetEarningRule is one element of the earning-rules listing.
type GetEarningRule struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	RuleType      string     `json:"rule_type"`
	PointsPerUnit string     `json:"points_per_unit"`
	UnitType      string     `json:"unit_type"`
	Multiplier    string     `json:"multiplier"`
	MinAmount     *string    `json:"min_amount,omitempty"`
	MaxPoints     *int64     `json:"max_points,omitempty"`
	Active        bool       `json:"active"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

func NewGetEarningRule(rule *entities.EarningRule) *GetEarningRule {
	res := &GetEarningRule{
		ID:            rule.ID(),
		Name:          rule.Name(),
		RuleType:      string(rule.RuleType()),
		PointsPerUnit: rule.PointsPerUnit().String(),
		UnitType:      rule.UnitType(),
		Multiplier:    rule.Multiplier().String(),
		Active:        rule.Active(),
		StartDate:     rule.StartDate(),
		EndDate:       rule.EndDate(),
	}

	if min := rule.MinAmount(); min != nil {
		s := min.String()
		res.MinAmount = &s
	}
	if max := rule.MaxPoints(); max != nil {
		n := max.Int64()
		res.MaxPoints = &n
	}

	return res
}
