package httpapi

import (
	"context"
	"net/http"

	"gmao-data/internal/domain"
	"gmao-data/internal/service"

	"go.uber.org/zap"
)

// LevelService is the slice of the level service the handler needs.
type LevelService interface {
	ListLevels(ctx context.Context, req service.ListLevelsRequest) ([]*domain.Level, error)
	CreateLevel(ctx context.Context, req service.CreateLevelRequest) (*domain.Level, error)
}

type LevelHandler struct {
	levels LevelService
	logger *zap.Logger
}

func NewLevelHandler(levels LevelService, logger *zap.Logger) *LevelHandler {
	return &LevelHandler{levels: levels, logger: logger}
}

func (h *LevelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// List handles GET /api/v1/levels.
func (h *LevelHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryReader{r: r}
	req := service.ListLevelsRequest{
		Name:             r.URL.Query().Get("name"),
		HierarchyID:      q.int64Ptr("hierarchy_id"),
		ParentID:         q.int64Ptr("parent_id"),
		Template:         q.boolPtr("template"),
		DisciplineID:     q.int64Ptr("discipline_id"),
		MaintainableUnit: q.boolPtr("maintainable_unit"),
	}
	if q.err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(q.err.Error()))
		return
	}

	levels, err := h.levels.ListLevels(r.Context(), req)
	if err != nil {
		h.logger.Error("ListLevels failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(levels, "ok"))
}

// Create handles POST /api/v1/levels. A template creation triggers subtree
// replication; replication failures do not block the 201.
func (h *LevelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLevelRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	level, err := h.levels.CreateLevel(r.Context(), req)
	if err != nil {
		h.logger.Error("CreateLevel failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(level, "level created"))
}
