package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gmao-data/internal/domain"
	"gmao-data/internal/repository"
	"gmao-data/internal/store"

	"go.uber.org/zap"
)

const planActivitiesCacheTTL = 5 * time.Minute

// PlanService exposes maintenance plan creation (template and
// manual-activity paths), snapshot reconciliation and the denormalized
// activity view.
type PlanService struct {
	plans    repository.PlansRepository
	kv       store.KV // optional, nil disables caching
	notifier *WebhookNotifier
	logger   *zap.Logger
}

func NewPlanService(plans repository.PlansRepository, kv store.KV, notifier *WebhookNotifier, logger *zap.Logger) *PlanService {
	return &PlanService{
		plans:    plans,
		kv:       kv,
		notifier: notifier,
		logger:   logger,
	}
}

// ListPlansRequest carries the optional ListPlans filters.
type ListPlansRequest struct {
	LevelID    *int64
	Sequence   *int
	AssemblyID *int64
	Status     string
}

func (s *PlanService) ListPlans(ctx context.Context, req ListPlansRequest) ([]*domain.MaintenancePlan, error) {
	plans, err := s.plans.ListPlans(ctx, repository.PlanFilters{
		LevelID:    req.LevelID,
		Sequence:   req.Sequence,
		AssemblyID: req.AssemblyID,
		Status:     req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	if plans == nil {
		plans = []*domain.MaintenancePlan{}
	}
	return plans, nil
}

// CreatePlanRequest carries the fields of a new plan. TemplateID, when set,
// triggers the template-path snapshot.
type CreatePlanRequest struct {
	LevelID       int64      `json:"level_id"`
	Sequence      int        `json:"sequence"`
	AssemblyID    int64      `json:"assembly_id"`
	TemplateID    *int64     `json:"template_id"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Status        string     `json:"status"`
	MeterReading  *float64   `json:"meter_reading"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
}

func (s *PlanService) validatePlan(req CreatePlanRequest) (*domain.MaintenancePlan, error) {
	if req.LevelID == 0 {
		return nil, invalidf("level_id is required")
	}
	if req.Sequence == 0 {
		return nil, invalidf("sequence is required")
	}
	if req.AssemblyID == 0 {
		return nil, invalidf("assembly_id is required")
	}
	status := req.Status
	if status == "" {
		status = domain.PlanStatusPending
	}
	if status != domain.PlanStatusPending && status != domain.PlanStatusCompleted {
		return nil, invalidf("invalid status: %s", status)
	}
	return &domain.MaintenancePlan{
		LevelID:       req.LevelID,
		Sequence:      req.Sequence,
		AssemblyID:    req.AssemblyID,
		TemplateID:    req.TemplateID,
		ScheduledDate: req.ScheduledDate,
		Status:        status,
		MeterReading:  req.MeterReading,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}, nil
}

// CreatePlan inserts the plan; when a template is referenced the snapshot of
// the template's structure is populated afterwards, best effort. A snapshot
// failure never undoes the plan row.
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*domain.MaintenancePlan, error) {
	plan, err := s.validatePlan(req)
	if err != nil {
		return nil, err
	}

	id, err := s.plans.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	plan.ID = id

	if req.TemplateID != nil {
		if err := s.plans.PopulateTemplateSnapshot(ctx, id, *req.TemplateID); err != nil {
			s.logger.Error("template snapshot population failed",
				zap.Int64("plan_id", id),
				zap.Int64("template_level_id", *req.TemplateID),
				zap.Error(err),
			)
		}
	}

	s.notifier.PlanCreated(ctx, plan)
	return plan, nil
}

// CreatePlanFromActivitiesRequest creates a plan from an explicit activity
// selection instead of a template.
type CreatePlanFromActivitiesRequest struct {
	CreatePlanRequest
	ActivityIDs []int64 `json:"activity_ids"`
}

// CreatePlanFromActivities inserts the plan and its full snapshot in one
// transaction; any failure rolls back everything.
func (s *PlanService) CreatePlanFromActivities(ctx context.Context, req CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error) {
	if len(req.ActivityIDs) == 0 {
		return nil, invalidf("activity_ids must not be empty")
	}
	plan, err := s.validatePlan(req.CreatePlanRequest)
	if err != nil {
		return nil, err
	}

	id, err := s.plans.CreatePlanFromActivities(ctx, plan, req.ActivityIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan from activities: %w", err)
	}
	plan.ID = id

	s.notifier.PlanCreated(ctx, plan)
	return plan, nil
}

func planActivitiesCacheKey(planID int64) string {
	return fmt.Sprintf("pm:activities:%d", planID)
}

// GetPlanActivities returns the plan's denormalized activity view, cached in
// the KV store when one is configured.
func (s *PlanService) GetPlanActivities(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
	if _, err := s.plans.GetPlan(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidf("plan %d not found", planID)
		}
		return nil, fmt.Errorf("failed to get plan %d: %w", planID, err)
	}

	key := planActivitiesCacheKey(planID)
	if s.kv != nil {
		if cached, err := s.kv.Get(ctx, key); err == nil {
			var views []*domain.PlanActivityView
			if err := json.Unmarshal([]byte(cached), &views); err == nil {
				return views, nil
			}
			// Corrupt cache entries fall through to the store.
		}
	}

	views, err := s.plans.ListPlanActivities(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan activities: %w", err)
	}
	if views == nil {
		views = []*domain.PlanActivityView{}
	}

	if s.kv != nil {
		if payload, err := json.Marshal(views); err == nil {
			if err := s.kv.Set(ctx, key, string(payload), planActivitiesCacheTTL); err != nil {
				s.logger.Warn("failed to cache plan activities", zap.Int64("plan_id", planID), zap.Error(err))
			}
		}
	}
	return views, nil
}

// ReplaceActivities tears down the plan's snapshot and rebuilds it from the
// given activity list in one transaction. An empty list is valid and leaves
// the plan with no snapshot rows.
func (s *PlanService) ReplaceActivities(ctx context.Context, planID int64, activityIDs []int64) error {
	if _, err := s.plans.GetPlan(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidf("plan %d not found", planID)
		}
		return fmt.Errorf("failed to get plan %d: %w", planID, err)
	}

	if err := s.plans.ReplaceActivities(ctx, planID, activityIDs); err != nil {
		return fmt.Errorf("failed to replace plan activities: %w", err)
	}

	if s.kv != nil {
		if err := s.kv.Del(ctx, planActivitiesCacheKey(planID)); err != nil {
			s.logger.Warn("failed to invalidate plan activities cache",
				zap.Int64("plan_id", planID),
				zap.Error(err),
			)
		}
	}
	return nil
}
