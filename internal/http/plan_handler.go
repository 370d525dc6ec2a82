package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gmao-data/internal/domain"
	"gmao-data/internal/service"

	"go.uber.org/zap"
)

// PlanService is the slice of the plan service the handler needs.
type PlanService interface {
	ListPlans(ctx context.Context, req service.ListPlansRequest) ([]*domain.MaintenancePlan, error)
	CreatePlan(ctx context.Context, req service.CreatePlanRequest) (*domain.MaintenancePlan, error)
	CreatePlanFromActivities(ctx context.Context, req service.CreatePlanFromActivitiesRequest) (*domain.MaintenancePlan, error)
	GetPlanActivities(ctx context.Context, planID int64) ([]*domain.PlanActivityView, error)
	ReplaceActivities(ctx context.Context, planID int64, activityIDs []int64) error
}

type PlanHandler struct {
	plans  PlanService
	logger *zap.Logger
}

func NewPlanHandler(plans PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, logger: logger}
}

// ServeHTTP routes /api/v1/plans and its subpaths:
//
//	GET  /api/v1/plans
//	POST /api/v1/plans
//	POST /api/v1/plans/from-activities
//	GET  /api/v1/plans/{id}/activities
//	PUT  /api/v1/plans/{id}/activities
//	GET  /api/v1/plans/{id}/activities/export
func (h *PlanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/plans"), "/")

	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			h.List(w, r)
		case http.MethodPost:
			h.Create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case rest == "from-activities":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.CreateFromActivities(w, r)
	default:
		parts := strings.Split(rest, "/")
		planID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(fmt.Sprintf("invalid plan id: %s", parts[0])))
			return
		}
		switch {
		case len(parts) == 2 && parts[1] == "activities":
			switch r.Method {
			case http.MethodGet:
				h.GetActivities(w, r, planID)
			case http.MethodPut:
				h.ReplaceActivities(w, r, planID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case len(parts) == 3 && parts[1] == "activities" && parts[2] == "export":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h.ExportActivities(w, r, planID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// List handles GET /api/v1/plans.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryReader{r: r}
	req := service.ListPlansRequest{
		LevelID:    q.int64Ptr("level_id"),
		Sequence:   q.intPtr("sequence"),
		AssemblyID: q.int64Ptr("assembly_id"),
		Status:     r.URL.Query().Get("status"),
	}
	if q.err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(q.err.Error()))
		return
	}

	plans, err := h.plans.ListPlans(r.Context(), req)
	if err != nil {
		h.logger.Error("ListPlans failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(plans, "ok"))
}

// Create handles POST /api/v1/plans. When template_id is set the structural
// snapshot is populated best effort; its failure does not block the 201.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlanRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	plan, err := h.plans.CreatePlan(r.Context(), req)
	if err != nil {
		h.logger.Error("CreatePlan failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(plan, "plan created"))
}

// CreateFromActivities handles POST /api/v1/plans/from-activities.
func (h *PlanHandler) CreateFromActivities(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePlanFromActivitiesRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	plan, err := h.plans.CreatePlanFromActivities(r.Context(), req)
	if err != nil {
		h.logger.Error("CreatePlanFromActivities failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(plan, "plan created"))
}

// GetActivities handles GET /api/v1/plans/{id}/activities.
func (h *PlanHandler) GetActivities(w http.ResponseWriter, r *http.Request, planID int64) {
	views, err := h.plans.GetPlanActivities(r.Context(), planID)
	if err != nil {
		h.logger.Error("GetPlanActivities failed", zap.Int64("plan_id", planID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(views, "ok"))
}

// ReplaceActivities handles PUT /api/v1/plans/{id}/activities. The body's
// activity list replaces the plan's snapshot wholesale; an empty list is
// valid and clears it.
func (h *PlanHandler) ReplaceActivities(w http.ResponseWriter, r *http.Request, planID int64) {
	var req struct {
		ActivityIDs []int64 `json:"activity_ids"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.plans.ReplaceActivities(r.Context(), planID, req.ActivityIDs); err != nil {
		h.logger.Error("ReplaceActivities failed", zap.Int64("plan_id", planID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil, "plan activities replaced"))
}

// ExportActivities handles GET /api/v1/plans/{id}/activities/export and
// streams the snapshot view as an Excel workbook.
func (h *PlanHandler) ExportActivities(w http.ResponseWriter, r *http.Request, planID int64) {
	views, err := h.plans.GetPlanActivities(r.Context(), planID)
	if err != nil {
		h.logger.Error("ExportActivities failed", zap.Int64("plan_id", planID), zap.Error(err))
		writeError(w, err)
		return
	}

	payload, err := GeneratePlanActivitiesExport(planID, views)
	if err != nil {
		h.logger.Error("ExportActivities excel generation failed", zap.Int64("plan_id", planID), zap.Error(err))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="plan-%d-activities.xlsx"`, planID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
