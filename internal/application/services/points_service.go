package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/application/events"
	"github.com/febry-setyawan/loyalty/internal/application/interfaces"
	"github.com/febry-setyawan/loyalty/internal/application/params"
	"github.com/febry-setyawan/loyalty/internal/config"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	"github.com/google/uuid"
)

// How many times a conflicted unit of work is retried with a fresh
// read before the conflict is returned to the caller.
const maxConflictRetries = 3

// PointsService orchestrates the earn and spend flows: validation,
// calculation, transaction processing, balance mutation, persistence
// and event publishing.
//
// Every state-changing flow runs inside one trm unit of work, so the
// balance read, the audit snapshot taken by PointTransaction.Process
// and the balance mutation commit or roll back together.
type PointsService struct {
	balanceRepo repositories.PointBalanceRepository
	txRepo      repositories.PointTransactionRepository
	calc        *PointCalculationService
	publisher   events.PointEventPublisher
	trm         trm.Manager
	logger      logger.Logger
	config      *config.Config
}

func NewPointsService(
	balanceRepo repositories.PointBalanceRepository,
	txRepo repositories.PointTransactionRepository,
	calc *PointCalculationService,
	publisher events.PointEventPublisher,
	trm trm.Manager,
	logger logger.Logger,
	config *config.Config,
) (*PointsService, error) {
	if balanceRepo == nil {
		return nil, errors.New("nil dependency: balance repository")
	}
	if txRepo == nil {
		return nil, errors.New("nil dependency: transaction repository")
	}
	if calc == nil {
		return nil, errors.New("nil dependency: calculation service")
	}
	if publisher == nil {
		return nil, errors.New("nil dependency: event publisher")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}

	return &PointsService{
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		calc:        calc,
		publisher:   publisher,
		trm:         trm,
		logger:      logger,
		config:      config,
	}, nil
}

var _ interfaces.PointsService = (*PointsService)(nil)

// EarnPoints awards points for an earning event.
func (s *PointsService) EarnPoints(ctx context.Context, p *params.EarnPoints) (*params.EarnPointsResult, error) {
	if p.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidRequest)
	}

	earningType, err := entities.ParseEarningType(p.EarningType)
	if err != nil {
		return nil, err
	}

	amount, err := entities.NewMoney(p.TransactionAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction amount must be positive", errs.ErrInvalidRequest)
	}
	// Referral awards are flat; the amount carries no information and
	// the referral endpoint sends none.
	if earningType != entities.REFERRAL && !s.calc.IsValidForPointEarning(amount) {
		return nil, fmt.Errorf("%w: transaction amount must be positive", errs.ErrInvalidRequest)
	}

	earned, err := s.calc.CalculateEarnedPoints(ctx, amount, p.UserID, earningType, p.UserTier)
	if err != nil {
		return nil, err
	}

	earned = s.calc.CalculateBonusPoints(earned, p.BonusMultiplier)

	var (
		transaction *entities.PointTransaction
		balance     *entities.PointBalance
	)

	err = s.withConflictRetry(ctx, func(ctx context.Context) error {
		var err error

		balance, err = s.balanceRepo.FindByUserIDOrCreate(ctx, p.UserID)
		if err != nil {
			return err
		}

		transaction, err = entities.NewPointTransaction(
			p.UserID, entities.EARN, earned, p.EarningType, p.ReferenceID, p.Description)
		if err != nil {
			return err
		}

		// Purchase earns age out; flat awards never do.
		if earningType == entities.PURCHASE {
			if err = transaction.SetExpiryDate(time.Now().Add(s.config.Expiry.Horizon)); err != nil {
				return err
			}
		}

		// Snapshot balanceAfter from the pre-mutation read, then
		// mutate. This ordering is part of the audit contract.
		if err = transaction.Process(balance.AvailablePoints()); err != nil {
			return err
		}
		balance.AddPoints(earned)

		if err = s.txRepo.Save(ctx, transaction); err != nil {
			return err
		}

		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return nil, err
	}

	// Post-commit notification; failures never undo the ledger.
	if earningType == entities.REFERRAL {
		s.publisher.PublishReferralPointsEarned(ctx, transaction, balance)
	} else {
		s.publisher.PublishPointsEarned(ctx, transaction, balance)
	}

	return &params.EarnPointsResult{
		TransactionID: transaction.ID(),
		UserID:        p.UserID,
		PointsEarned:  earned.Int64(),
		NewBalance:    balance.TotalPoints().Int64(),
		Message:       "points earned successfully",
	}, nil
}

// SpendPoints debits points from the user's available balance.
func (s *PointsService) SpendPoints(ctx context.Context, p *params.SpendPoints) (*params.SpendPointsResult, error) {
	if p.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidRequest)
	}
	if p.Points <= 0 {
		return nil, fmt.Errorf("%w: points to spend must be positive", errs.ErrInvalidRequest)
	}

	points, err := entities.NewPointsFromInt(p.Points)
	if err != nil {
		return nil, err
	}

	var (
		transaction *entities.PointTransaction
		balance     *entities.PointBalance
	)

	err = s.withConflictRetry(ctx, func(ctx context.Context) error {
		var err error

		balance, err = s.balanceRepo.FindByUserIDOrCreate(ctx, p.UserID)
		if err != nil {
			return err
		}

		transaction, err = entities.NewPointTransaction(
			p.UserID, entities.SPEND, points, p.Source, p.ReferenceID, p.Description)
		if err != nil {
			return err
		}

		if err = transaction.Process(balance.AvailablePoints()); err != nil {
			// Not enough points for the snapshot either; report the
			// balance violation, not the arithmetic one.
			if errors.Is(err, errs.ErrInvalidQuantity) {
				return fmt.Errorf("%w: have %s, want to spend %s",
					errs.ErrInsufficientBalance, balance.AvailablePoints(), points)
			}
			return err
		}
		if err = balance.SpendPoints(points); err != nil {
			return err
		}

		if err = s.txRepo.Save(ctx, transaction); err != nil {
			return err
		}

		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishPointsSpent(ctx, transaction, balance)

	return &params.SpendPointsResult{
		TransactionID: transaction.ID(),
		UserID:        p.UserID,
		PointsSpent:   points.Int64(),
		NewBalance:    balance.TotalPoints().Int64(),
		Message:       "points spent successfully",
	}, nil
}

// GetBalance is a pure read path; it bypasses calculation entirely.
// A first lookup creates the zeroed balance, as the original system did.
func (s *PointsService) GetBalance(ctx context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidRequest)
	}

	balance, err := s.balanceRepo.FindByUserIDOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return balance, nil
}

// GetEarningRules returns the currently applicable rules.
func (s *PointsService) GetEarningRules(ctx context.Context) ([]*entities.EarningRule, error) {
	return s.calc.ActiveRules(ctx)
}

// withConflictRetry runs fn inside a trm unit of work, re-running it
// with a fresh read when a version or uniqueness conflict lost the
// race. Anything else propagates unchanged.
func (s *PointsService) withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.trm.Do(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrVersionConflict) && !errors.Is(err, errs.ErrDataConflict) {
			return err
		}
		s.logger.With(ctx, "attempt", attempt+1).
			Infof("retrying conflicted unit of work: %s", err)
	}

	return err
}
