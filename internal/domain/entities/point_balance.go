package entities

import (
	"fmt"
	"time"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/google/uuid"
)

// PointBalance is the per-user aggregate of point counters.
//
// Invariant after every mutation: totalPoints == availablePoints.
// Confirmed earns and spends move both fields by the same delta;
// pending points are tracked apart and folded in on confirmation.
//
// Each successful mutator bumps version; the persistence layer uses
// LoadedVersion as the compare-and-set token, so a write against a
// stale row fails with errs.ErrVersionConflict and must be retried
// with a fresh read.
type PointBalance struct {
	id             uuid.UUID
	userID         uuid.UUID
	totalPoints    Points
	availablePoints Points
	pendingPoints  Points
	lifetimeEarned Points
	lifetimeSpent  Points
	createdAt      time.Time
	updatedAt      time.Time
	version        int
	// Version as read from storage; stays fixed across in-memory
	// mutations within one unit of work.
	loadedVersion int
}

// NewPointBalance creates a zeroed balance for a user.
func NewPointBalance(userID uuid.UUID) (*PointBalance, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidRequest)
	}

	now := time.Now()

	return &PointBalance{
		id:              uuid.New(),
		userID:          userID,
		totalPoints:     ZeroPoints(),
		availablePoints: ZeroPoints(),
		pendingPoints:   ZeroPoints(),
		lifetimeEarned:  ZeroPoints(),
		lifetimeSpent:   ZeroPoints(),
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructPointBalance rehydrates a balance from persisted fields.
// Corrupted rows (negative counters, total != available) are rejected
// rather than let into the domain.
func ReconstructPointBalance(
	id, userID uuid.UUID,
	totalPoints, availablePoints, pendingPoints, lifetimeEarned, lifetimeSpent Points,
	createdAt, updatedAt time.Time,
	version int,
) (*PointBalance, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: balance without id", errs.ErrInvalidRequest)
	}
	if !totalPoints.Equal(availablePoints) {
		return nil, fmt.Errorf("%w: stored balance violates total == available: %s != %s",
			errs.ErrInvalidQuantity, totalPoints, availablePoints)
	}

	return &PointBalance{
		id:              id,
		userID:          userID,
		totalPoints:     totalPoints,
		availablePoints: availablePoints,
		pendingPoints:   pendingPoints,
		lifetimeEarned:  lifetimeEarned,
		lifetimeSpent:   lifetimeSpent,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		version:         version,
		loadedVersion:   version,
	}, nil
}

func (b *PointBalance) ID() uuid.UUID           { return b.id }
func (b *PointBalance) UserID() uuid.UUID       { return b.userID }
func (b *PointBalance) TotalPoints() Points     { return b.totalPoints }
func (b *PointBalance) AvailablePoints() Points { return b.availablePoints }
func (b *PointBalance) PendingPoints() Points   { return b.pendingPoints }
func (b *PointBalance) LifetimeEarned() Points  { return b.lifetimeEarned }
func (b *PointBalance) LifetimeSpent() Points   { return b.lifetimeSpent }
func (b *PointBalance) CreatedAt() time.Time    { return b.createdAt }
func (b *PointBalance) UpdatedAt() time.Time    { return b.updatedAt }
func (b *PointBalance) Version() int            { return b.version }

// LoadedVersion is the optimistic concurrency token captured at
// rehydration. Zero for balances not yet persisted.
func (b *PointBalance) LoadedVersion() int { return b.loadedVersion }

// AddPoints credits confirmed points. No upper bound.
func (b *PointBalance) AddPoints(points Points) {
	b.totalPoints = b.totalPoints.Add(points)
	b.availablePoints = b.availablePoints.Add(points)
	b.lifetimeEarned = b.lifetimeEarned.Add(points)
	b.touch()
}

// SpendPoints debits available points.
func (b *PointBalance) SpendPoints(points Points) error {
	if !b.availablePoints.GreaterThanOrEqual(points) {
		return fmt.Errorf("%w: have %s, want to spend %s",
			errs.ErrInsufficientBalance, b.availablePoints, points)
	}

	// Guarded above; subtraction cannot go negative.
	b.totalPoints, _ = b.totalPoints.Sub(points)
	b.availablePoints, _ = b.availablePoints.Sub(points)
	b.lifetimeSpent = b.lifetimeSpent.Add(points)
	b.touch()

	return nil
}

// AddPendingPoints credits points awaiting confirmation.
func (b *PointBalance) AddPendingPoints(points Points) {
	b.pendingPoints = b.pendingPoints.Add(points)
	b.touch()
}

// ConfirmPendingPoints folds pending points into the confirmed counters.
func (b *PointBalance) ConfirmPendingPoints(points Points) error {
	if !b.pendingPoints.GreaterThanOrEqual(points) {
		return fmt.Errorf("%w: have %s pending, want to confirm %s",
			errs.ErrInsufficientPending, b.pendingPoints, points)
	}

	b.pendingPoints, _ = b.pendingPoints.Sub(points)
	b.totalPoints = b.totalPoints.Add(points)
	b.availablePoints = b.availablePoints.Add(points)
	b.lifetimeEarned = b.lifetimeEarned.Add(points)
	b.touch()

	return nil
}

// ExpirePoints debits available points without touching lifetimeSpent;
// expiry is accounted separately from voluntary spend.
func (b *PointBalance) ExpirePoints(points Points) error {
	if !b.availablePoints.GreaterThanOrEqual(points) {
		return fmt.Errorf("%w: have %s, want to expire %s",
			errs.ErrInsufficientBalance, b.availablePoints, points)
	}

	b.totalPoints, _ = b.totalPoints.Sub(points)
	b.availablePoints, _ = b.availablePoints.Sub(points)
	b.touch()

	return nil
}

func (b *PointBalance) touch() {
	b.version++
	b.updatedAt = time.Now()
}
