// Package store handles SQLite persistence of simulation runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/bjtsim/internal/bjt"
	"github.com/verte-zerg/bjtsim/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			run_uuid TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			device TEXT NOT NULL,
			kind TEXT NOT NULL,
			fixed_name TEXT NOT NULL,
			fixed_value REAL NOT NULL,
			fixed_unit TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_points (
			run_id INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS run_parameters (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			device TEXT NOT NULL,
			input_impedance REAL NOT NULL,
			output_impedance REAL NOT NULL,
			current_gain REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_device_kind ON runs(device, kind);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSweep stores a sweep and its samples in one transaction.
func (s *Store) InsertSweep(ctx context.Context, sw bjt.SweepResult, at time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_uuid, created_at, device, kind, fixed_name, fixed_value, fixed_unit)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		at.UTC().Format(timeLayout),
		sw.Device,
		sw.Kind.String(),
		sw.Fixed.Name,
		sw.Fixed.Value,
		sw.Fixed.Unit,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(sw.Data) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx, `INSERT INTO run_points (run_id, idx, x, y) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, pt := range sw.Data {
			if _, err = stmt.ExecContext(ctx, id, i, pt.X, pt.Y); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertParameters stores a set of extracted parameters.
func (s *Store) InsertParameters(ctx context.Context, device string, params bjt.Parameters, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO run_parameters (created_at, device, input_impedance, output_impedance, current_gain)
		 VALUES (?, ?, ?, ?, ?)`,
		at.UTC().Format(timeLayout),
		device,
		params.InputImpedance,
		params.OutputImpedance,
		params.CurrentGain,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns stored sweeps, newest last. Last limits the result to the
// most recent runs.
func (s *Store) ListRuns(ctx context.Context, filter model.RunFilter) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Device != "" {
		clauses = append(clauses, "r.device = ?")
		args = append(args, strings.ToUpper(filter.Device))
	}
	if filter.Kind != "" {
		clauses = append(clauses, "r.kind = ?")
		args = append(args, strings.ToLower(filter.Kind))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT r.id, r.run_uuid, r.created_at, r.device, r.kind, r.fixed_name, r.fixed_value, r.fixed_unit,
			(SELECT COUNT(*) FROM run_points p WHERE p.run_id = r.id) AS points
		FROM runs r
		WHERE %s
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?
	) ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var rec model.RunRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.UUID, &createdAt, &rec.Device, &rec.Kind, &rec.FixedName, &rec.FixedValue, &rec.FixedUnit, &rec.Points); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadSweep rebuilds a stored sweep by id.
func (s *Store) LoadSweep(ctx context.Context, id int64) (bjt.SweepResult, error) {
	var sw bjt.SweepResult
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT device, kind, fixed_name, fixed_value, fixed_unit FROM runs WHERE id = ?`, id,
	).Scan(&sw.Device, &kind, &sw.Fixed.Name, &sw.Fixed.Value, &sw.Fixed.Unit)
	if errors.Is(err, sql.ErrNoRows) {
		return bjt.SweepResult{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return bjt.SweepResult{}, err
	}
	sw.Kind, err = bjt.ParseKind(kind)
	if err != nil {
		return bjt.SweepResult{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT x, y FROM run_points WHERE run_id = ? ORDER BY idx ASC`, id)
	if err != nil {
		return bjt.SweepResult{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	for rows.Next() {
		var pt bjt.Point
		if err := rows.Scan(&pt.X, &pt.Y); err != nil {
			return bjt.SweepResult{}, err
		}
		sw.Data = append(sw.Data, pt)
	}
	if err := rows.Err(); err != nil {
		return bjt.SweepResult{}, err
	}
	return sw, nil
}

// ListParameters returns stored parameter sets for a device, newest last.
func (s *Store) ListParameters(ctx context.Context, device string, last int) ([]model.ParameterRecord, error) {
	limit := -1
	if last > 0 {
		limit = last
	}
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM (
		SELECT id, created_at, device, input_impedance, output_impedance, current_gain
		FROM run_parameters
		WHERE (? = '' OR device = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	) ORDER BY created_at ASC, id ASC`, device, strings.ToUpper(device), limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ParameterRecord
	for rows.Next() {
		var rec model.ParameterRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Device, &rec.InputImpedance, &rec.OutputImpedance, &rec.CurrentGain); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
