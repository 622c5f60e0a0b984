package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type BalanceRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewBalanceRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*BalanceRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &BalanceRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.PointBalanceRepository = (*BalanceRepository)(nil)

const balanceColumns = `id, user_id, total_points, available_points,
	pending_points, lifetime_earned, lifetime_spent,
	created_at, updated_at, version`

// Save writes back a balance obtained from FindByUserID or
// FindByUserIDOrCreate (the row always exists by then). The UPDATE is
// version-checked: a write against a stale row affects nothing and
// fails with errs.ErrVersionConflict.
func (r *BalanceRepository) Save(ctx context.Context, b *entities.PointBalance) error {
	const query = `
		UPDATE point_balances SET
			total_points = $1,
			available_points = $2,
			pending_points = $3,
			lifetime_earned = $4,
			lifetime_spent = $5,
			updated_at = $6,
			version = $7
		WHERE id = $8 AND version = $9;
	`

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		b.TotalPoints().Decimal(),
		b.AvailablePoints().Decimal(),
		b.PendingPoints().Decimal(),
		b.LifetimeEarned().Decimal(),
		b.LifetimeSpent().Decimal(),
		b.UpdatedAt(),
		b.Version(),
		b.ID(),
		b.LoadedVersion(),
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: balance %s at version %d",
			errs.ErrVersionConflict, b.ID(), b.LoadedVersion())
	}

	return nil
}

func (r *BalanceRepository) insert(ctx context.Context, b *entities.PointBalance) error {
	const query = `
		INSERT INTO point_balances (id, user_id, total_points, available_points,
			pending_points, lifetime_earned, lifetime_spent, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		b.ID(),
		b.UserID(),
		b.TotalPoints().Decimal(),
		b.AvailablePoints().Decimal(),
		b.PendingPoints().Decimal(),
		b.LifetimeEarned().Decimal(),
		b.LifetimeSpent().Decimal(),
		b.CreatedAt(),
		b.UpdatedAt(),
		b.Version(),
	)
	if err != nil {
		// Two first-earn requests racing to create the same user's
		// balance; the uniqueness constraint is the only backstop.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: balance for user %s already exists",
				errs.ErrDataConflict, b.UserID())
		}
		return err
	}

	return nil
}

func (r *BalanceRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	query := "SELECT " + balanceColumns + " FROM point_balances WHERE user_id = $1"

	return r.scanOne(r.getter.DefaultTrOrDB(ctx, r.db).QueryRowContext(ctx, query, userID))
}

// FindByUserIDOrCreate returns the user's balance, creating a zeroed
// one on first contact. The create has no concurrency guard of its
// own; the loser of a duplicate insert gets errs.ErrDataConflict and
// retries.
func (r *BalanceRepository) FindByUserIDOrCreate(ctx context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	balance, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	balance, err = entities.NewPointBalance(userID)
	if err != nil {
		return nil, err
	}

	if err = r.insert(ctx, balance); err != nil {
		return nil, err
	}

	return balance, nil
}

func (r *BalanceRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	const query = "DELETE FROM point_balances WHERE user_id = $1"

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *BalanceRepository) scanOne(row *sql.Row) (*entities.PointBalance, error) {
	var (
		id, userID                                                             uuid.UUID
		total, available, pending, lifetimeEarned, lifetimeSpent decimal.Decimal
		createdAt, updatedAt                                     time.Time
		version                                                  int
	)

	err := row.Scan(&id, &userID, &total, &available, &pending,
		&lifetimeEarned, &lifetimeSpent, &createdAt, &updatedAt, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	balance, err := reconstructBalance(id, userID,
		total, available, pending, lifetimeEarned, lifetimeSpent,
		createdAt, updatedAt, version)
	if err != nil {
		return nil, fmt.Errorf("corrupted balance row %s: %w", id, err)
	}

	return balance, nil
}

// reconstructBalance rehydrates a stored row, refusing counters the
// domain would never have written.
func reconstructBalance(
	id, userID uuid.UUID,
	total, available, pending, lifetimeEarned, lifetimeSpent decimal.Decimal,
	createdAt, updatedAt time.Time,
	version int,
) (*entities.PointBalance, error) {
	counters := make([]entities.Points, 0, 5)
	for _, d := range []decimal.Decimal{total, available, pending, lifetimeEarned, lifetimeSpent} {
		p, err := entities.NewPoints(d)
		if err != nil {
			return nil, err
		}
		counters = append(counters, p)
	}

	return entities.ReconstructPointBalance(
		id, userID,
		counters[0], counters[1], counters[2], counters[3], counters[4],
		createdAt, updatedAt, version,
	)
}
