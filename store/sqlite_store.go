package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements RunStore using SQLite for persistence.
type SQLiteStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the run ledger under basePath, normally
// the project directory. Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "runs.db")

		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Batch workers record runs concurrently; wait instead of failing
	// with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		status TEXT NOT NULL,               -- succeeded, failed
		failed_stage TEXT,                  -- empty unless status = failed
		areas_merged INTEGER NOT NULL DEFAULT 0,
		conflicts_found INTEGER NOT NULL DEFAULT 0,
		duplicates_removed INTEGER NOT NULL DEFAULT 0,
		report_path TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_property ON runs(property_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) SaveRun(rec RunRecord) (RunRecord, error) {
	if rec.ID == "" {
		rec.ID = "r-" + uuid.New().String()[:8]
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, property_id, status, failed_stage, areas_merged, conflicts_found, duplicates_removed, report_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.PropertyID, string(rec.Status), rec.FailedStage, rec.AreasMerged,
		rec.ConflictsFound, rec.DuplicatesRemoved, rec.ReportPath, rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	return rec, nil
}

func (s *SQLiteStore) GetRun(id string) (*RunRecord, error) {
	var rec RunRecord
	var status, createdAt string
	var failedStage, reportPath sql.NullString

	err := s.db.QueryRow(`
		SELECT id, property_id, status, failed_stage, areas_merged, conflicts_found, duplicates_removed, report_path, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&rec.ID, &rec.PropertyID, &status, &failedStage, &rec.AreasMerged,
		&rec.ConflictsFound, &rec.DuplicatesRemoved, &reportPath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rec.Status = RunStatus(status)
	rec.FailedStage = failedStage.String
	rec.ReportPath = reportPath.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &rec, nil
}

func (s *SQLiteStore) ListRuns(limit int) ([]RunRecord, error) {
	return s.listRuns("", limit)
}

func (s *SQLiteStore) ListRunsForProperty(propertyID string, limit int) ([]RunRecord, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("property id is required")
	}
	return s.listRuns(propertyID, limit)
}

func (s *SQLiteStore) listRuns(propertyID string, limit int) ([]RunRecord, error) {
	// created_at has second granularity; rowid breaks ties in insert order.
	query := `
		SELECT id, property_id, status, failed_stage, areas_merged, conflicts_found, duplicates_removed, report_path, created_at
		FROM runs
	`
	args := []any{}
	if propertyID != "" {
		query += " WHERE property_id = ?"
		args = append(args, propertyID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var status, createdAt string
		var failedStage, reportPath sql.NullString

		if err := rows.Scan(&rec.ID, &rec.PropertyID, &status, &failedStage, &rec.AreasMerged,
			&rec.ConflictsFound, &rec.DuplicatesRemoved, &reportPath, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		rec.Status = RunStatus(status)
		rec.FailedStage = failedStage.String
		rec.ReportPath = reportPath.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
