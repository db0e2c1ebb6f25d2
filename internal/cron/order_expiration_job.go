package cron

import (
	"context"
	"fmt"

	"github.com/perfuman/storefront-backend/pkg/metrics"
)

// OrderExpirationJob runs the expirer on the worker cadence.
type OrderExpirationJob struct {
	expirer *Expirer
	metrics *metrics.CronJobMetrics
}

// NewOrderExpirationJob wraps an expirer as a registered cron job.
func NewOrderExpirationJob(expirer *Expirer, m *metrics.CronJobMetrics) (*OrderExpirationJob, error) {
	if expirer == nil {
		return nil, fmt.Errorf("expirer required")
	}
	return &OrderExpirationJob{expirer: expirer, metrics: m}, nil
}

func (j *OrderExpirationJob) Name() string { return "order-expiration" }

func (j *OrderExpirationJob) Run(ctx context.Context) error {
	expired, err := j.expirer.ExpireStale(ctx)
	j.metrics.AddExpiredOrders(expired)
	return err
}
