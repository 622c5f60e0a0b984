package params

import (
	"github.com/google/uuid"
)

// SpendPoints is the plain-data input of the spend-points flow.
type SpendPoints struct {
	UserID      uuid.UUID
	Points      int64
	Source      string
	ReferenceID *uuid.UUID
	Description string
}

// SpendPointsResult reports the outcome of a successful spend.
type SpendPointsResult struct {
	TransactionID uuid.UUID
	UserID        uuid.UUID
	PointsSpent   int64
	NewBalance    int64
	Message       string
}
