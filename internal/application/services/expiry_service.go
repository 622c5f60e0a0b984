package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/application/events"
	"github.com/febry-setyawan/loyalty/internal/config"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/limiter"
	"github.com/febry-setyawan/loyalty/pkg/logger"
)

// ExpiryService sweeps processed earn transactions past their expiry
// date and debits the corresponding points. Each expiry is its own
// unit of work; a version conflict skips the transaction until the
// next sweep instead of retrying inline.
type ExpiryService struct {
	balanceRepo repositories.PointBalanceRepository
	txRepo      repositories.PointTransactionRepository
	publisher   events.PointEventPublisher
	trm         trm.Manager
	limiter     *limiter.DynamicRateLimiter
	logger      logger.Logger
	config      *config.Config
	wg          *sync.WaitGroup
	done        chan struct{}
	stopOnce    sync.Once
}

func NewExpiryService(
	balanceRepo repositories.PointBalanceRepository,
	txRepo repositories.PointTransactionRepository,
	publisher events.PointEventPublisher,
	trm trm.Manager,
	config *config.Config,
	logger logger.Logger,
) (*ExpiryService, error) {
	if config == nil {
		return nil, errors.New("nil dependency: config")
	}
	if trm == nil {
		return nil, errors.New("nil dependency: transaction manager")
	}

	return &ExpiryService{
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		publisher:   publisher,
		trm:         trm,
		limiter:     limiter.NewDynamicRateLimiter(config.Expiry.Pace, 1),
		logger:      logger,
		config:      config,
		wg:          &sync.WaitGroup{},
		done:        make(chan struct{}),
	}, nil
}

// Run starts the sweep loop in the background.
func (s *ExpiryService) Run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
}

// Stop signals the loop and waits for the current sweep, bounded by
// the configured shutdown timeout.
func (s *ExpiryService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})

	ready := make(chan struct{})
	go func() {
		defer close(ready)
		s.wg.Wait()
	}()

	select {
	case <-time.After(s.config.HTTPServer.ShutdownTimeout):
		s.logger.Error("expiry service stop: shutdown timeout exceeded")
	case <-ready:
		return
	}
}

func (s *ExpiryService) run() {
	ticker := time.NewTicker(s.config.Expiry.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.sweep(context.Background()); err != nil {
				s.logger.Errorf("expiry sweep: %s", err)
			}
		}
	}
}

// sweep expires one page of aged earn transactions.
func (s *ExpiryService) sweep(ctx context.Context) error {
	expired, err := s.txRepo.FindExpired(ctx, time.Now(), s.config.Expiry.Limit)
	if err != nil {
		return fmt.Errorf("find expired transactions: %w", err)
	}

	for _, tx := range expired {
		select {
		case <-s.done:
			return nil
		default:
		}

		// Pace database writes so sweeps never saturate the store.
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		if err := s.expireOne(ctx, tx); err != nil {
			if errors.Is(err, errs.ErrVersionConflict) || errors.Is(err, errs.ErrDataConflict) {
				// Lost the race; the next sweep picks it up again.
				continue
			}
			s.logger.With(ctx, "transaction", tx.ID()).
				Errorf("expire points: %s", err)
		}
	}

	return nil
}

func (s *ExpiryService) expireOne(ctx context.Context, source *entities.PointTransaction) error {
	var (
		transaction *entities.PointTransaction
		balance     *entities.PointBalance
	)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error

		balance, err = s.balanceRepo.FindByUserID(ctx, source.UserID())
		if err != nil {
			return err
		}

		sourceID := source.ID()
		transaction, err = entities.NewPointTransaction(
			source.UserID(),
			entities.EXPIRE,
			source.PointsAmount(),
			string(entities.EXPIRE),
			&sourceID,
			fmt.Sprintf("points expired on %s", source.ExpiryDate().Format(time.RFC3339)),
		)
		if err != nil {
			return err
		}

		if err = transaction.Process(balance.AvailablePoints()); err != nil {
			return err
		}
		if err = balance.ExpirePoints(source.PointsAmount()); err != nil {
			return err
		}

		if err = s.txRepo.Save(ctx, transaction); err != nil {
			return err
		}

		return s.balanceRepo.Save(ctx, balance)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishPointsExpired(ctx, transaction, balance)

	return nil
}
