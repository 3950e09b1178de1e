package catalog

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panelcam/pkg/errors"
)

const (
	prefsQuery = `SELECT key, value FROM preferences`
	toolsQuery = `SELECT number, type, diameter, feed, plunge, speed, coolant, peck, retract FROM tools ORDER BY number`
)

var toolColumns = []string{"number", "type", "diameter", "feed", "plunge", "speed", "coolant", "peck", "retract"}

func TestReadToolCrib(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(prefsQuery)).WillReturnRows(
		sqlmock.NewRows([]string{"key", "value"}).
			AddRow("predrill", "1").
			AddRow("coolant", "flood").
			AddRow("units", "mm"))
	mock.ExpectQuery(regexp.QuoteMeta(toolsQuery)).WillReturnRows(
		sqlmock.NewRows(toolColumns).
			AddRow(1, "drill", 1.0, 100.0, 50.0, 10000.0, nil, nil, nil).
			AddRow(4, "drill", 3.2, 100.0, 50.0, 6000.0, "none", 0.5, 3.0).
			AddRow(7, "endmill", 3.0, 400.0, 100.0, 12000.0, "mist", nil, nil))

	table, err := ReadToolCrib(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 1, table.Predrill)
	assert.Equal(t, 0, table.Mill)
	require.Len(t, table.Tools, 3)
	assert.Equal(t, CoolantFlood, table.Tools[0].Coolant)
	assert.Equal(t, CoolantOff, table.Tools[1].Coolant)
	assert.Equal(t, 0.5, table.Tools[1].PeckDepth)
	assert.Equal(t, 3.0, table.Tools[1].RetractHeight)
	assert.Equal(t, Mill, table.Tools[2].Kind)

	c, err := New(nil, table)
	require.NoError(t, err)
	mill, ok := c.Mill()
	require.True(t, ok)
	assert.Equal(t, 7, mill.Number)
}

func TestReadToolCribBadPreference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(prefsQuery)).WillReturnRows(
		sqlmock.NewRows([]string{"key", "value"}).AddRow("mill", "big"))

	_, err = ReadToolCrib(context.Background(), db)
	assert.True(t, errors.Is(err, errors.ErrInvalidCatalog), "got %v", err)
}

func TestReadToolCribQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(prefsQuery)).WillReturnRows(sqlmock.NewRows([]string{"key", "value"}))
	mock.ExpectQuery(regexp.QuoteMeta(toolsQuery)).WillReturnError(errors.New("no such table: tools"))

	_, err = ReadToolCrib(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}

func TestIsToolCrib(t *testing.T) {
	assert.True(t, IsToolCrib("shop.db"))
	assert.True(t, IsToolCrib("/x/crib.SQLite"))
	assert.False(t, IsToolCrib("tools.toml"))
}
