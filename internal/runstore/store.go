package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/rfi-flagger/internal/grid"
	"github.com/banshee-data/rfi-flagger/internal/rfi/flagger"
	"github.com/banshee-data/rfi-flagger/internal/rfi/sumthreshold"
	"github.com/banshee-data/rfi-flagger/internal/rfi/thresholds"
	"github.com/banshee-data/rfi-flagger/internal/timeutil"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is a persisted flagging execution.
type Run struct {
	RunID      string          `json:"run_id"`
	Label      string          `json:"label"`
	Report     flagger.Report  `json:"report"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// Store provides persistence for flagging runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for run timestamps.
func WithClock(c timeutil.Clock) Option { return func(s *Store) { s.clock = c } }

// Open opens (or creates) the database at path and migrates it to the
// latest schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection, and an in-memory database is per
	// connection too, so the pool holds a single connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert persists run, its passes and the final mask. If RunID is empty a
// UUID is generated; if CreatedAt is zero the store clock is used.
func (s *Store) Insert(run *Run, mask *grid.Mask) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var params interface{}
	if len(run.ParamsJSON) > 0 {
		params = string(run.ParamsJSON)
	}
	var blob []byte
	if mask != nil {
		blob = EncodeMask(mask)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := &run.Report
	_, err = tx.Exec(`
		INSERT INTO flagging_runs (
			run_id, label, width, height, distribution, noise_scale,
			time_factor, frequency_factor, non_finite, tier_fallback,
			initial_flagged, final_flagged, duration_ns, params_json,
			mask_zstd, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Label, r.Width, r.Height, r.Distribution.String(), r.NoiseScale,
		r.TimeFactor, r.FrequencyFactor, r.NonFinite, r.TierFallback,
		r.InitialFlagged, r.FinalFlagged, int64(r.Duration), params,
		blob, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO flagging_passes (
			run_id, pass_index, scale, direction, length, threshold,
			tier, newly_flagged, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare pass insert: %w", err)
	}
	defer stmt.Close()
	for i, p := range r.Passes {
		if _, err := stmt.Exec(run.RunID, i, p.Scale, p.Direction.String(), p.Length, p.Threshold,
			p.Tier, p.NewlyFlagged, int64(p.Duration)); err != nil {
			return fmt.Errorf("failed to insert pass %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, label, width, height, distribution, noise_scale,
	time_factor, frequency_factor, non_finite, tier_fallback,
	initial_flagged, final_flagged, duration_ns, params_json, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run      Run
		dist     string
		params   sql.NullString
		duration int64
	)
	r := &run.Report
	err := row.Scan(
		&run.RunID, &run.Label, &r.Width, &r.Height, &dist, &r.NoiseScale,
		&r.TimeFactor, &r.FrequencyFactor, &r.NonFinite, &r.TierFallback,
		&r.InitialFlagged, &r.FinalFlagged, &duration, &params, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.Distribution, err = thresholds.ParseDistribution(dist); err != nil {
		return nil, fmt.Errorf("run %s: %w", run.RunID, err)
	}
	r.Duration = time.Duration(duration)
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	return &run, nil
}

// Get returns a run by ID including its passes.
func (s *Store) Get(runID string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM flagging_runs WHERE run_id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if run.Report.Passes, err = s.Passes(runID); err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first, without passes. limit <= 0
// returns all runs.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM flagging_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Passes returns the passes of a run in execution order.
func (s *Store) Passes(runID string) ([]flagger.Pass, error) {
	rows, err := s.db.Query(`
		SELECT scale, direction, length, threshold, tier, newly_flagged, duration_ns
		FROM flagging_passes
		WHERE run_id = ?
		ORDER BY pass_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var passes []flagger.Pass
	for rows.Next() {
		var (
			p        flagger.Pass
			dir      string
			duration int64
		)
		if err := rows.Scan(&p.Scale, &dir, &p.Length, &p.Threshold, &p.Tier, &p.NewlyFlagged, &duration); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		var d sumthreshold.Direction
		if err := d.UnmarshalText([]byte(dir)); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.Direction = d
		p.Duration = time.Duration(duration)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

// Mask returns the final mask stored with a run.
func (s *Store) Mask(runID string) (*grid.Mask, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT mask_zstd FROM flagging_runs WHERE run_id = ?`, runID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, fmt.Errorf("query mask: %w", err)
	}
	if blob == nil {
		return nil, fmt.Errorf("run %s has no stored mask", runID)
	}
	return DecodeMask(blob)
}

// Delete removes a run and its passes.
func (s *Store) Delete(runID string) error {
	result, err := s.db.Exec(`DELETE FROM flagging_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}
