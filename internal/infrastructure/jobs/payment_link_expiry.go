package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"payment-links.backend/internal/domain/entities"
	"payment-links.backend/pkg/logger"
	"payment-links.backend/pkg/metrics"
)

const (
	defaultExpiryInterval = time.Minute
	expiryBatchSize       = 100
)

type expiringLinkStore interface {
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entities.PaymentLink, error)
	MarkExpired(ctx context.Context, ids []uuid.UUID) error
}

// PaymentLinkExpiryJob flips active links past their expiry date to expired.
// Money status is left alone; a late webhook still reconciles normally.
type PaymentLinkExpiryJob struct {
	repo     expiringLinkStore
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
}

func NewPaymentLinkExpiryJob(repo expiringLinkStore, interval time.Duration) *PaymentLinkExpiryJob {
	if interval <= 0 {
		interval = defaultExpiryInterval
	}
	return &PaymentLinkExpiryJob{
		repo:     repo,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (j *PaymentLinkExpiryJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting payment link expiry job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Payment link expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Payment link expiry job stopped")
			return
		case <-ticker.C:
			j.processExpiredLinks(ctx)
		}
	}
}

func (j *PaymentLinkExpiryJob) Stop() {
	close(j.stop)
}

func (j *PaymentLinkExpiryJob) processExpiredLinks(ctx context.Context) {
	expired, err := j.repo.ListExpiredActive(ctx, j.now(), expiryBatchSize)
	if err != nil {
		logger.Error(ctx, "Error fetching expired payment links", zap.Error(err))
		return
	}

	if len(expired) == 0 {
		return
	}

	ids := lo.Map(expired, func(l *entities.PaymentLink, _ int) uuid.UUID { return l.ID })
	if err := j.repo.MarkExpired(ctx, ids); err != nil {
		logger.Error(ctx, "Error expiring payment links", zap.Int("count", len(ids)), zap.Error(err))
		return
	}

	metrics.LinksExpired.Add(float64(len(ids)))
	logger.Info(ctx, "Expired payment links", zap.Int("count", len(ids)))
}
