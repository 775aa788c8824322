package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/smukkama/solar-forecast/internal/forecast"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One pipeline, one connection: reads and writes never overlap
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order and returns the
// names of the files applied
func (db *DB) RunMigrations(migrationsDir string) ([]string, error) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		content, err := os.ReadFile(filepath.Join(migrationsDir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	return sqlFiles, nil
}

// FetchWindow returns the most recent WindowSize rows for the target,
// oldest first. NULL columns read as 0.
func (db *DB) FetchWindow(ctx context.Context, t forecast.Target) (forecast.Window, error) {
	query, ok := windowQueries[t]
	if !ok {
		return nil, fmt.Errorf("no window query for %v", t)
	}

	rows, err := db.QueryContext(ctx, query, forecast.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s window: %w", t, err)
	}
	defer rows.Close()

	width := len(t.Profile().Columns)
	window := make(forecast.Window, 0, forecast.WindowSize)
	for rows.Next() {
		var (
			truth  sql.NullFloat64
			o      forecast.Observation
			values = make([]sql.NullFloat64, width)
		)

		dest := []any{&truth, &o.Year, &o.Month, &o.Day, &o.Hour}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s window: %w", t, err)
		}

		o.GroundTruth = truth.Float64
		o.Values = make([]float64, width)
		for i, v := range values {
			o.Values[i] = v.Float64
		}
		window = append(window, o)
	}

	return window, rows.Err()
}

// SaveForecast calls the stored procedure that records one forecast hour
func (db *DB) SaveForecast(ctx context.Context, procedure string, year, month, day, hour int, value float64) error {
	if !knownProcedures[procedure] {
		return fmt.Errorf("unknown procedure %q", procedure)
	}

	query := fmt.Sprintf("CALL %s($1, $2, $3, $4, $5)", procedure)
	if _, err := db.ExecContext(ctx, query, year, month, day, hour, value); err != nil {
		return fmt.Errorf("failed to call %s: %w", procedure, err)
	}

	return nil
}
