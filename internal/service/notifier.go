package service

import (
	"context"
	"time"

	"gmao-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PlanEvent is the payload posted to the configured webhook when a plan is
// created.
type PlanEvent struct {
	Event      string `json:"event"`
	PlanID     int64  `json:"plan_id"`
	LevelID    int64  `json:"level_id"`
	TemplateID *int64 `json:"template_id,omitempty"`
	Status     string `json:"status"`
}

// WebhookNotifier posts plan events to an external consumer. Delivery is
// best effort: failures are logged, never surfaced to the caller. A nil
// notifier is a no-op, so callers don't need to guard.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	if url == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &WebhookNotifier{client: client, url: url, logger: logger}
}

// PlanCreated posts a plan-created event to the webhook.
func (n *WebhookNotifier) PlanCreated(ctx context.Context, plan *domain.MaintenancePlan) {
	if n == nil {
		return
	}

	event := PlanEvent{
		Event:      "plan.created",
		PlanID:     plan.ID,
		LevelID:    plan.LevelID,
		TemplateID: plan.TemplateID,
		Status:     plan.Status,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.Int64("plan_id", plan.ID), zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected event",
			zap.Int64("plan_id", plan.ID),
			zap.Int("status", resp.StatusCode()),
		)
	}
}
