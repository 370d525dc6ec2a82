package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gmao-data/internal/domain"
)

func newLevelService(levels *fakeLevelsRepo) *LevelService {
	activities := newFakeActivitiesRepo()
	replicator := NewSubtreeReplicator(levels, activities, zap.NewNop())
	return NewLevelService(levels, replicator, zap.NewNop())
}

func TestCreateLevel_Validation(t *testing.T) {
	svc := newLevelService(newFakeLevelsRepo())

	cases := []struct {
		name string
		req  CreateLevelRequest
	}{
		{"missing name", CreateLevelRequest{HierarchyID: 1}},
		{"missing hierarchy", CreateLevelRequest{Name: "Bomba"}},
		{"template and generic", CreateLevelRequest{Name: "Bomba", HierarchyID: 1, Template: true, Generic: true}},
		{"template without parent", CreateLevelRequest{Name: "Bomba", HierarchyID: 1, Template: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateLevel(context.Background(), tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCreateLevel_TemplateParentMustBeGeneric(t *testing.T) {
	levels := newFakeLevelsRepo(
		&domain.Level{ID: 1, HierarchyID: 1, Name: "Bomba normal"},
	)
	svc := newLevelService(levels)

	_, err := svc.CreateLevel(context.Background(), CreateLevelRequest{
		Name:        "Plantilla bomba",
		HierarchyID: 1,
		ParentID:    ptrInt64(1),
		Template:    true,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "must be generic")
}

func TestCreateLevel_TemplateReplicatesGenericSubtree(t *testing.T) {
	levels := newFakeLevelsRepo(
		&domain.Level{ID: 1, HierarchyID: 1, Name: "Bomba generica", Generic: true},
		&domain.Level{ID: 2, HierarchyID: 1, ParentID: ptrInt64(1), Name: "Rodamientos"},
	)
	svc := newLevelService(levels)

	created, err := svc.CreateLevel(context.Background(), CreateLevelRequest{
		Name:        "Plantilla bomba",
		HierarchyID: 1,
		ParentID:    ptrInt64(1),
		Template:    true,
		UserID:      1,
	})

	require.NoError(t, err)
	require.NotZero(t, created.ID)

	children, err := levels.ListChildren(context.Background(), created.ID, false)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Rodamientos", children[0].Name)
}

func TestCreateLevel_ReplicationFailureKeepsLevel(t *testing.T) {
	// A hierarchy cycle makes replication fail outright; the template level
	// itself must survive.
	levels := newFakeLevelsRepo(
		&domain.Level{ID: 1, HierarchyID: 1, ParentID: ptrInt64(2), Name: "Bomba generica", Generic: true},
		&domain.Level{ID: 2, HierarchyID: 1, ParentID: ptrInt64(1), Name: "Rodamientos"},
	)
	svc := newLevelService(levels)

	created, err := svc.CreateLevel(context.Background(), CreateLevelRequest{
		Name:        "Plantilla bomba",
		HierarchyID: 1,
		ParentID:    ptrInt64(1),
		Template:    true,
	})

	require.NoError(t, err)
	_, err = levels.GetLevel(context.Background(), created.ID)
	require.NoError(t, err)
}

func TestCreateLevel_PlainLevelDoesNotReplicate(t *testing.T) {
	levels := newFakeLevelsRepo(
		&domain.Level{ID: 1, HierarchyID: 1, Name: "Planta", Generic: false},
		&domain.Level{ID: 2, HierarchyID: 1, ParentID: ptrInt64(1), Name: "Linea 1"},
	)
	svc := newLevelService(levels)

	created, err := svc.CreateLevel(context.Background(), CreateLevelRequest{
		Name:        "Linea 2",
		HierarchyID: 1,
		ParentID:    ptrInt64(1),
	})

	require.NoError(t, err)
	children, err := levels.ListChildren(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestListLevels_EmptyResultIsNotNil(t *testing.T) {
	svc := newLevelService(newFakeLevelsRepo())

	levels, err := svc.ListLevels(context.Background(), ListLevelsRequest{})

	require.NoError(t, err)
	assert.NotNil(t, levels)
	assert.Empty(t, levels)
}
