package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"panelcam/pkg/errors"
)

// IsToolCrib reports whether path names a SQLite tool crib rather than a
// TOML or YAML tool table.
func IsToolCrib(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// OpenToolCrib reads the tool table from a SQLite database.
func OpenToolCrib(ctx context.Context, path string) (ToolTable, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return ToolTable{}, errors.Wrapf(err, "opening tool crib %s", path)
	}
	defer db.Close()

	table, err := ReadToolCrib(ctx, db)
	if err != nil {
		return ToolTable{}, errors.Wrapf(err, "tool crib %s", path)
	}
	return table, nil
}

// ReadToolCrib reads tools and preferences from an open database. The crib
// has a tools table and a key/value preferences table carrying the
// predrill, mill and default coolant selections.
func ReadToolCrib(ctx context.Context, db *sql.DB) (ToolTable, error) {
	prefs, err := readPreferences(ctx, db)
	if err != nil {
		return ToolTable{}, err
	}

	var table ToolTable
	if table.Predrill, err = toolPreference(prefs, "predrill"); err != nil {
		return ToolTable{}, err
	}
	if table.Mill, err = toolPreference(prefs, "mill"); err != nil {
		return ToolTable{}, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT number, type, diameter, feed, plunge, speed, coolant, peck, retract FROM tools ORDER BY number`)
	if err != nil {
		return ToolTable{}, errors.Wrap(err, "querying tools")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			number                   int
			kind                     string
			dia, feed, plunge, speed float64
			coolant                  sql.NullString
			peck, retract            sql.NullFloat64
		)
		if err := rows.Scan(&number, &kind, &dia, &feed, &plunge, &speed, &coolant, &peck, &retract); err != nil {
			return ToolTable{}, errors.Wrap(err, "scanning tool row")
		}
		c := coolant.String
		if c == "" {
			c = prefs["coolant"]
		}
		tool, err := newTool(number, kind, dia, feed, plunge, speed, c, peck.Float64, retract.Float64)
		if err != nil {
			return ToolTable{}, errors.Wrapf(err, "tool %d", number)
		}
		table.Tools = append(table.Tools, tool)
	}
	if err := rows.Err(); err != nil {
		return ToolTable{}, errors.Wrap(err, "reading tools")
	}
	return table, nil
}

func toolPreference(prefs map[string]string, key string) (int, error) {
	value, ok := prefs[key]
	if !ok || value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Kindf(errors.ErrInvalidCatalog, "preference %s: %q is not a tool number", key, value)
	}
	return n, nil
}

func readPreferences(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return nil, errors.Wrap(err, "querying preferences")
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Wrap(err, "scanning preference row")
		}
		prefs[key] = value
	}
	return prefs, errors.Wrap(rows.Err(), "reading preferences")
}
