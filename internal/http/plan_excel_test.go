package httpapi

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gmao-data/internal/domain"
)

func TestGeneratePlanActivitiesExport(t *testing.T) {
	views := []*domain.PlanActivityView{
		{SnapshotActivityID: 1, SnapshotLevelID: 1, LevelID: 11, LevelName: "Bomba centrifuga",
			HierarchyID: 1, Order: 1, Description: "Lubricar rodamientos", Reference: "-", Duration: 1},
		{SnapshotActivityID: 2, SnapshotLevelID: 2, LevelID: 12, LevelName: "Motor electrico",
			HierarchyID: 1, Order: 1, Description: "Inspeccionar sellos", Reference: "-", Duration: 1},
	}

	payload, err := GeneratePlanActivitiesExport(7, views)
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Plan 7")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, PlanActivitiesExportHeader, rows[0])
	assert.Equal(t, "Lubricar rodamientos", rows[1][6])
	assert.Equal(t, "Motor electrico", rows[2][3])
}

func TestGeneratePlanActivitiesExport_EmptyView(t *testing.T) {
	payload, err := GeneratePlanActivitiesExport(7, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Plan 7")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
