package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewTransactionRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*TransactionRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &TransactionRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.PointTransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `id, user_id, transaction_type, points_amount,
	balance_after, source, source_id, description, metadata,
	expiry_date, status, created_at, processed_at`

func (r *TransactionRepository) Save(ctx context.Context, t *entities.PointTransaction) error {
	const query = `
		INSERT INTO point_transactions (id, user_id, transaction_type, points_amount,
			balance_after, source, source_id, description, metadata,
			expiry_date, status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			balance_after = EXCLUDED.balance_after,
			metadata = EXCLUDED.metadata,
			expiry_date = EXCLUDED.expiry_date,
			status = EXCLUDED.status,
			processed_at = EXCLUDED.processed_at;
	`

	var balanceAfter *decimal.Decimal
	if t.BalanceAfter() != nil {
		d := t.BalanceAfter().Decimal()
		balanceAfter = &d
	}

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		t.ID(),
		t.UserID(),
		t.TransactionType(),
		t.PointsAmount().Decimal(),
		balanceAfter,
		t.Source(),
		t.SourceID(),
		t.Description(),
		t.Metadata(),
		t.ExpiryDate(),
		t.Status(),
		t.CreatedAt(),
		t.ProcessedAt(),
	)

	return err
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.PointTransaction, error) {
	query := "SELECT " + transactionColumns + " FROM point_transactions WHERE id = $1"

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}

	transactions, err := r.scan(rows)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return nil, errs.ErrNotFound
	}

	return transactions[0], nil
}

func (r *TransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entities.PointTransaction, error) {
	query := "SELECT " + transactionColumns +
		" FROM point_transactions WHERE user_id = $1 ORDER BY created_at DESC"

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return r.scan(rows)
}

func (r *TransactionRepository) FindByUserIDAndDateRange(
	ctx context.Context, userID uuid.UUID, from, to time.Time,
) ([]*entities.PointTransaction, error) {
	query := "SELECT " + transactionColumns + ` FROM point_transactions
		WHERE user_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at DESC`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}

	return r.scan(rows)
}

func (r *TransactionRepository) FindPendingTransactions(ctx context.Context) ([]*entities.PointTransaction, error) {
	query := "SELECT " + transactionColumns +
		" FROM point_transactions WHERE status = $1 ORDER BY created_at"

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, entities.PENDING)
	if err != nil {
		return nil, err
	}

	return r.scan(rows)
}

// FindExpired returns processed earn transactions whose expiry date
// has passed and which no EXPIRE transaction references yet.
func (r *TransactionRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*entities.PointTransaction, error) {
	query := "SELECT " + transactionColumns + ` FROM point_transactions t
		WHERE t.transaction_type = $1
			AND t.status = $2
			AND t.expiry_date IS NOT NULL
			AND t.expiry_date <= $3
			AND NOT EXISTS (
				SELECT 1 FROM point_transactions e
				WHERE e.transaction_type = $4 AND e.source_id = t.id
			)
		ORDER BY t.expiry_date
		LIMIT $5`

	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query,
		entities.EARN, entities.PROCESSED, now, entities.EXPIRE, limit)
	if err != nil {
		return nil, err
	}

	return r.scan(rows)
}

func (r *TransactionRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const query = "DELETE FROM point_transactions WHERE id = $1"

	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query, id)
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

func (r *TransactionRepository) scan(rows *sql.Rows) ([]*entities.PointTransaction, error) {
	transactions := make([]*entities.PointTransaction, 0)

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Errorf("close rows: %s", err)
		}
	}()

	for rows.Next() {
		var (
			id, userID      uuid.UUID
			transactionType entities.TransactionType
			pointsAmount    decimal.Decimal
			balanceAfter    *decimal.Decimal
			source          string
			sourceID        *uuid.UUID
			description     string
			metadata        string
			expiryDate      *time.Time
			status          entities.TransactionStatus
			createdAt       time.Time
			processedAt     *time.Time
		)

		err := rows.Scan(&id, &userID, &transactionType, &pointsAmount,
			&balanceAfter, &source, &sourceID, &description, &metadata,
			&expiryDate, &status, &createdAt, &processedAt)
		if err != nil {
			return nil, err
		}

		amount, err := entities.NewPoints(pointsAmount)
		if err != nil {
			return nil, err
		}

		var after *entities.Points
		if balanceAfter != nil {
			p, err := entities.NewPoints(*balanceAfter)
			if err != nil {
				return nil, err
			}
			after = &p
		}

		transaction, err := entities.ReconstructPointTransaction(
			id, userID, transactionType, amount, after,
			source, sourceID, description, metadata,
			expiryDate, status, createdAt, processedAt,
		)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, transaction)
	}

	// Rows.Err will report the last error encountered by Rows.Scan.
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}
