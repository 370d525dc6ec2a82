package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextKey_SeedsFromMax(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"next"}).AddRow(43)
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(idpm\), 0\) \+ 1 FROM pm`).
		WillReturnRows(rows)

	next, err := NextKey(context.Background(), db, "pm")

	require.NoError(t, err)
	assert.Equal(t, int64(43), next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextKey_EmptyTableStartsAtOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"next"}).AddRow(1)
	mock.ExpectQuery(`FROM rep_nivel`).WillReturnRows(rows)

	next, err := NextKey(context.Background(), db, "rep_nivel")

	require.NoError(t, err)
	assert.Equal(t, int64(1), next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextKey_UnknownTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NextKey(context.Background(), db, "nivel")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no key sequence")
	require.NoError(t, mock.ExpectationsWereMet())
}
