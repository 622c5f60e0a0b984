package messaging

import (
	"context"

	"github.com/febry-setyawan/loyalty/internal/application/events"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/pkg/logger"
)

// LogPublisher writes point events as structured log lines.
// It stands in for a message broker; the ledger never depends on
// delivery succeeding.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(logger logger.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

var _ events.PointEventPublisher = (*LogPublisher)(nil)

func (p *LogPublisher) PublishPointsEarned(ctx context.Context, t *entities.PointTransaction, b *entities.PointBalance) {
	p.log(ctx, "points earned", t, b)
}

func (p *LogPublisher) PublishPointsSpent(ctx context.Context, t *entities.PointTransaction, b *entities.PointBalance) {
	p.log(ctx, "points spent", t, b)
}

func (p *LogPublisher) PublishPointsExpired(ctx context.Context, t *entities.PointTransaction, b *entities.PointBalance) {
	p.log(ctx, "points expired", t, b)
}

func (p *LogPublisher) PublishReferralPointsEarned(ctx context.Context, t *entities.PointTransaction, b *entities.PointBalance) {
	p.log(ctx, "referral points earned", t, b)
}

func (p *LogPublisher) log(ctx context.Context, event string, t *entities.PointTransaction, b *entities.PointBalance) {
	p.logger.With(ctx,
		"event", event,
		"user", t.UserID(),
		"transaction", t.ID(),
		"points", t.PointsAmount().Int64(),
		"balance", b.TotalPoints().Int64(),
	).Infof("point event: %s", event)
}
