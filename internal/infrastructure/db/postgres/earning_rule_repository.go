package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/domain/repositories"
	"github.com/febry-setyawan/loyalty/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EarningRuleRepository struct {
	db     *sql.DB
	getter *trmsql.CtxGetter
	logger logger.Logger
}

func NewEarningRuleRepository(db *sql.DB, getter *trmsql.CtxGetter, logger logger.Logger) (*EarningRuleRepository, error) {
	if db == nil {
		return nil, errors.New("nil dependency: database")
	}
	if getter == nil {
		return nil, errors.New("nil dependency: transaction getter")
	}

	return &EarningRuleRepository{db: db, getter: getter, logger: logger}, nil
}

var _ repositories.EarningRuleRepository = (*EarningRuleRepository)(nil)

const ruleColumns = `id, name, rule_type, points_per_unit, unit_type,
	multiplier, min_amount, max_points, tier_restrictions, active,
	start_date, end_date, created_at, updated_at`

func (r *EarningRuleRepository) Save(ctx context.Context, rule *entities.EarningRule) error {
	const query = `
		INSERT INTO earning_rules (id, name, rule_type, points_per_unit, unit_type,
			multiplier, min_amount, max_points, tier_restrictions, active,
			start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			points_per_unit = EXCLUDED.points_per_unit,
			unit_type = EXCLUDED.unit_type,
			multiplier = EXCLUDED.multiplier,
			min_amount = EXCLUDED.min_amount,
			max_points = EXCLUDED.max_points,
			tier_restrictions = EXCLUDED.tier_restrictions,
			active = EXCLUDED.active,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = EXCLUDED.updated_at;
	`

	var maxPoints *decimal.Decimal
	if rule.MaxPoints() != nil {
		d := rule.MaxPoints().Decimal()
		maxPoints = &d
	}

	var restrictions []byte
	if rule.TierRestrictions() != nil {
		var err error
		restrictions, err = json.Marshal(rule.TierRestrictions())
		if err != nil {
			return fmt.Errorf("marshal tier restrictions: %w", err)
		}
	}

	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, query,
		rule.ID(),
		rule.Name(),
		rule.RuleType(),
		rule.PointsPerUnit(),
		rule.UnitType(),
		rule.Multiplier(),
		rule.MinAmount(),
		maxPoints,
		restrictions,
		rule.Active(),
		rule.StartDate(),
		rule.EndDate(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)

	return err
}

func (r *EarningRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.EarningRule, error) {
	query := "SELECT " + ruleColumns + " FROM earning_rules WHERE id = $1"

	rules, err := r.query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, errs.ErrNotFound
	}

	return rules[0], nil
}

func (r *EarningRuleRepository) FindAll(ctx context.Context) ([]*entities.EarningRule, error) {
	query := "SELECT " + ruleColumns + " FROM earning_rules"

	return r.query(ctx, query)
}

func (r *EarningRuleRepository) FindActiveRules(ctx context.Context) ([]*entities.EarningRule, error) {
	query := "SELECT " + ruleColumns + ` FROM earning_rules
		WHERE active
			AND (start_date IS NULL OR start_date <= now())
			AND (end_date IS NULL OR end_date >= now())`

	return r.query(ctx, query)
}

func (r *EarningRuleRepository) FindByRuleType(ctx context.Context, ruleType entities.EarningType) ([]*entities.EarningRule, error) {
	query := "SELECT " + ruleColumns + " FROM earning_rules WHERE rule_type = $1"

	return r.query(ctx, query, ruleType)
}

func (r *EarningRuleRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const query = "DELETE FROM earning_rules WHERE id = $1"

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

func (r *EarningRuleRepository) query(ctx context.Context, query string, args ...any) ([]*entities.EarningRule, error) {
	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	rules := make([]*entities.EarningRule, 0)

	defer func() {
		if err = rows.Close(); err != nil {
			r.logger.Errorf("close rows: %s", err)
		}
	}()

	for rows.Next() {
		var (
			id                   uuid.UUID
			name                 string
			ruleType             entities.EarningType
			pointsPerUnit        decimal.Decimal
			unitType             string
			multiplier           decimal.Decimal
			minAmount            *decimal.Decimal
			maxPointsRaw         *decimal.Decimal
			restrictionsRaw      []byte
			active               bool
			startDate, endDate   *time.Time
			createdAt, updatedAt time.Time
		)

		err = rows.Scan(&id, &name, &ruleType, &pointsPerUnit, &unitType,
			&multiplier, &minAmount, &maxPointsRaw, &restrictionsRaw,
			&active, &startDate, &endDate, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		var maxPoints *entities.Points
		if maxPointsRaw != nil {
			p, err := entities.NewPoints(*maxPointsRaw)
			if err != nil {
				return nil, err
			}
			maxPoints = &p
		}

		var restrictions map[string]any
		if len(restrictionsRaw) > 0 {
			if err = json.Unmarshal(restrictionsRaw, &restrictions); err != nil {
				return nil, fmt.Errorf("unmarshal tier restrictions: %w", err)
			}
		}

		rule, err := entities.ReconstructEarningRule(
			id, name, ruleType, pointsPerUnit, unitType, multiplier,
			minAmount, maxPoints, restrictions, active,
			startDate, endDate, createdAt, updatedAt,
		)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	// Rows.Err will report the last error encountered by Rows.Scan.
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}
