package entities

import (
	"fmt"
	"time"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/google/uuid"
)

// TransactionType names the direction of a point movement.
type TransactionType string

const (
	EARN   TransactionType = "EARN"
	SPEND  TransactionType = "SPEND"
	EXPIRE TransactionType = "EXPIRE"
	REFUND TransactionType = "REFUND"
	BONUS  TransactionType = "BONUS"
	REF    TransactionType = "REFERRAL"
)

// additive reports whether the type credits the balance.
func (t TransactionType) additive() bool {
	switch t {
	case EARN, BONUS, REF, REFUND:
		return true
	}
	return false
}

// TransactionStatus is the state of a transaction's short lifecycle.
type TransactionStatus string

const (
	PENDING   TransactionStatus = "PENDING"
	PROCESSED TransactionStatus = "PROCESSED"
	CANCELLED TransactionStatus = "CANCELLED"
	FAILED    TransactionStatus = "FAILED"
)

// terminal statuses admit no further transition.
func (s TransactionStatus) terminal() bool {
	return s == PROCESSED || s == CANCELLED || s == FAILED
}

// PointTransaction is the auditable record of a single point movement.
//
// Lifecycle: PENDING -> PROCESSED | CANCELLED | FAILED; the three
// latter states are terminal.
type PointTransaction struct {
	id              uuid.UUID
	userID          uuid.UUID
	transactionType TransactionType
	pointsAmount    Points
	balanceAfter    *Points
	source          string
	sourceID        *uuid.UUID
	description     string
	metadata        string
	expiryDate      *time.Time
	status          TransactionStatus
	createdAt       time.Time
	processedAt     *time.Time
}

// NewPointTransaction creates a PENDING transaction.
func NewPointTransaction(
	userID uuid.UUID,
	transactionType TransactionType,
	pointsAmount Points,
	source string,
	sourceID *uuid.UUID,
	description string,
) (*PointTransaction, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidRequest)
	}

	return &PointTransaction{
		id:              uuid.New(),
		userID:          userID,
		transactionType: transactionType,
		pointsAmount:    pointsAmount,
		source:          source,
		sourceID:        sourceID,
		description:     description,
		status:          PENDING,
		createdAt:       time.Now(),
	}, nil
}

// ReconstructPointTransaction rehydrates a transaction from persisted
// fields; not part of the public mutation API.
func ReconstructPointTransaction(
	id, userID uuid.UUID,
	transactionType TransactionType,
	pointsAmount Points,
	balanceAfter *Points,
	source string,
	sourceID *uuid.UUID,
	description, metadata string,
	expiryDate *time.Time,
	status TransactionStatus,
	createdAt time.Time,
	processedAt *time.Time,
) (*PointTransaction, error) {
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: transaction without id", errs.ErrInvalidRequest)
	}

	return &PointTransaction{
		id:              id,
		userID:          userID,
		transactionType: transactionType,
		pointsAmount:    pointsAmount,
		balanceAfter:    balanceAfter,
		source:          source,
		sourceID:        sourceID,
		description:     description,
		metadata:        metadata,
		expiryDate:      expiryDate,
		status:          status,
		createdAt:       createdAt,
		processedAt:     processedAt,
	}, nil
}

func (t *PointTransaction) ID() uuid.UUID                    { return t.id }
func (t *PointTransaction) UserID() uuid.UUID                { return t.userID }
func (t *PointTransaction) TransactionType() TransactionType { return t.transactionType }
func (t *PointTransaction) PointsAmount() Points             { return t.pointsAmount }
func (t *PointTransaction) BalanceAfter() *Points            { return t.balanceAfter }
func (t *PointTransaction) Source() string                   { return t.source }
func (t *PointTransaction) SourceID() *uuid.UUID             { return t.sourceID }
func (t *PointTransaction) Description() string              { return t.description }
func (t *PointTransaction) Metadata() string                 { return t.metadata }
func (t *PointTransaction) ExpiryDate() *time.Time           { return t.expiryDate }
func (t *PointTransaction) Status() TransactionStatus        { return t.status }
func (t *PointTransaction) CreatedAt() time.Time             { return t.createdAt }
func (t *PointTransaction) ProcessedAt() *time.Time          { return t.processedAt }

func (t *PointTransaction) IsPending() bool   { return t.status == PENDING }
func (t *PointTransaction) IsProcessed() bool { return t.status == PROCESSED }

// SetExpiryDate stamps the expiry horizon on a not-yet-terminal
// transaction; the expiry worker sweeps processed earns past it.
func (t *PointTransaction) SetExpiryDate(expiry time.Time) error {
	if t.status.terminal() {
		return fmt.Errorf("%w: transaction is %s", errs.ErrInvalidState, t.status)
	}
	t.expiryDate = &expiry
	return nil
}

// Process moves the transaction to PROCESSED, computing balanceAfter
// from the available balance the caller read at call time. The value
// is a point-in-time audit snapshot, never recomputed; the caller must
// obtain the balance and call Process within one atomic unit of work.
func (t *PointTransaction) Process(currentAvailableBalance Points) error {
	if t.status.terminal() {
		return fmt.Errorf("%w: transaction is already %s", errs.ErrInvalidState, t.status)
	}

	var after Points
	if t.transactionType.additive() {
		after = currentAvailableBalance.Add(t.pointsAmount)
	} else {
		var err error
		after, err = currentAvailableBalance.Sub(t.pointsAmount)
		if err != nil {
			return err
		}
	}

	now := time.Now()
	t.balanceAfter = &after
	t.processedAt = &now
	t.status = PROCESSED

	return nil
}

// Cancel moves a non-terminal transaction to CANCELLED.
func (t *PointTransaction) Cancel() error {
	if t.status.terminal() {
		return fmt.Errorf("%w: transaction is already %s", errs.ErrInvalidState, t.status)
	}
	t.status = CANCELLED
	return nil
}

// Fail moves a non-terminal transaction to FAILED, recording the
// reason in metadata.
func (t *PointTransaction) Fail(reason string) error {
	if t.status.terminal() {
		return fmt.Errorf("%w: transaction is already %s", errs.ErrInvalidState, t.status)
	}
	t.status = FAILED
	t.metadata = reason
	return nil
}
