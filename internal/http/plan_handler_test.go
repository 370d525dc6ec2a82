package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gmao-data/internal/domain"
	"gmao-data/internal/service"
)

type fakePlanService struct {
	listFn           func(ctx context.Context, req service.ListPlansRequest) ([]*domain.MaintenancePlan, error)
	createFn         func(ctx context.Context, req service.CreatePlanRequest) (*domain.MaintenancePlan, error)
	createFromFn     func(ctx context.Context, req service.CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error)
	getActivitiesFn  func(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error)
	replaceFn        func(ctx context.Context, planID int64, activityIDs []int64) error
}

func (f *fakePlanService) ListPlans(ctx context.Context, req service.ListPlansRequest) ([]*domain.MaintenancePlan, error) {
	return f.listFn(ctx, req)
}

func (f *fakePlanService) CreatePlan(ctx context.Context, req service.CreatePlanRequest) (*domain.MaintenancePlan, error) {
	return f.createFn(ctx, req)
}

func (f *fakePlanService) CreatePlanFromActivities(ctx context.Context, req service.CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error) {
	return f.createFromFn(ctx, req)
}

func (f *fakePlanService) GetPlanActivities(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
	return f.getActivitiesFn(ctx, planID)
}

func (f *fakePlanService) ReplaceActivities(ctx context.Context, planID int64, activityIDs []int64) error {
	return f.replaceFn(ctx, planID, activityIDs)
}

func TestPlanHandler_Create(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{
		createFn: func(ctx context.Context, req service.CreatePlanRequest) (*domain.MaintenancePlan, error) {
			return &domain.MaintenancePlan{ID: 7, LevelID: req.LevelID, Status: domain.PlanStatusPending}, nil
		},
	}, zap.NewNop())

	body := `{"level_id":11,"sequence":1,"assembly_id":5,"template_id":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var res Result[*domain.MaintenancePlan]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, "plan created", res.Message)
	assert.Equal(t, int64(7), res.Data.ID)
}

func TestPlanHandler_List_BadFilterValue(t *testing.T) {
	var called bool
	h := NewPlanHandler(&fakePlanService{
		listFn: func(ctx context.Context, req service.ListPlansRequest) ([]*domain.MaintenancePlan, error) {
			called = true
			return nil, nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans?level_id=x", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "an unparseable filter must not become an unfiltered query")

	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Contains(t, res.Message, "level_id")
}

func TestPlanHandler_CreateFromActivities(t *testing.T) {
	var gotIDs []int64
	h := NewPlanHandler(&fakePlanService{
		createFromFn: func(ctx context.Context, req service.CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error) {
			gotIDs = req.ActivityIDs
			return &domain.MaintenancePlan{ID: 8}, nil
		},
	}, zap.NewNop())

	body := `{"level_id":11,"sequence":1,"assembly_id":5,"activity_ids":[100,101]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/from-activities", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []int64{100, 101}, gotIDs)
}

func TestPlanHandler_CreateFromActivities_EmptySelection(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{
		createFromFn: func(ctx context.Context, req service.CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error) {
			return nil, fmt.Errorf("activity_ids must not be empty: %w", service.ErrInvalid)
		},
	}, zap.NewNop())

	body := `{"level_id":11,"sequence":1,"assembly_id":5,"activity_ids":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/from-activities", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.False(t, res.Success)
}

func TestPlanHandler_InvalidPlanID(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/abc/activities", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "invalid plan id")
}

func TestPlanHandler_GetActivities(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{
		getActivitiesFn: func(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
			assert.Equal(t, int64(7), planID)
			return []*domain.PlanActivityView{
				{SnapshotActivityID: 1, LevelName: "Bomba centrifuga", Description: "Lubricar rodamientos", Reference: "-", Duration: 1},
			}, nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/7/activities", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var res Result[[]*domain.PlanActivityView]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Lubricar rodamientos", res.Data[0].Description)
}

func TestPlanHandler_GetActivities_UnknownPlan(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{
		getActivitiesFn: func(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
			return nil, fmt.Errorf("plan %d not found: %w", planID, service.ErrInvalid)
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/99/activities", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanHandler_ReplaceActivities(t *testing.T) {
	var gotPlanID int64
	var gotIDs []int64
	h := NewPlanHandler(&fakePlanService{
		replaceFn: func(ctx context.Context, planID int64, activityIDs []int64) error {
			gotPlanID = planID
			gotIDs = activityIDs
			return nil
		},
	}, zap.NewNop())

	body := `{"activity_ids":[200,201]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/plans/7/activities", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotPlanID)
	assert.Equal(t, []int64{200, 201}, gotIDs)

	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.True(t, res.Success)
	assert.Equal(t, "plan activities replaced", res.Message)
}

func TestPlanHandler_ReplaceActivities_EmptyBodyRejected(t *testing.T) {
	var called bool
	h := NewPlanHandler(&fakePlanService{
		replaceFn: func(ctx context.Context, planID int64, activityIDs []int64) error {
			called = true
			return nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/plans/7/activities", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "an empty body must never clear the snapshot")

	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.False(t, res.Success)
}

func TestPlanHandler_ReplaceActivities_EmptyListClears(t *testing.T) {
	var called bool
	h := NewPlanHandler(&fakePlanService{
		replaceFn: func(ctx context.Context, planID int64, activityIDs []int64) error {
			called = true
			assert.Empty(t, activityIDs)
			return nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/plans/7/activities", strings.NewReader(`{"activity_ids":[]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestPlanHandler_ExportActivities(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{
		getActivitiesFn: func(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error) {
			return []*domain.PlanActivityView{
				{SnapshotActivityID: 1, SnapshotLevelID: 1, LevelID: 11, LevelName: "Bomba centrifuga",
					HierarchyID: 1, Order: 1, Description: "Lubricar rodamientos", Reference: "-", Duration: 1},
			}, nil
		},
	}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/7/activities/export", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "plan-7-activities.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestPlanHandler_UnknownSubpath(t *testing.T) {
	h := NewPlanHandler(&fakePlanService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans/7/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
