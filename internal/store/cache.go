// Package store provides a SQLite-backed action log and snapshot cache.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/adrec/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoSnapshot is returned when no cached snapshot matches.
var ErrNoSnapshot = errors.New("store: no cached snapshot")

// keepSnapshots is how many cached snapshots survive a prune per window.
const keepSnapshots = 10

// Action kinds.
const (
	KindBudget = "budget"
	KindPause  = "pause"
)

// Action statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Action is one submitted budget change or pause command.
type Action struct {
	ID         string
	Kind       string
	Target     string // campaign key or adset id
	Label      string // display name when known
	Counter    int
	Multiplier float64
	Status     string
	Error      string
	CreatedAt  time.Time
}

// Cache provides the SQLite-backed store.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// RecordAction appends an action to the log, assigning an id and timestamp
// when missing. It returns the stored action.
func (c *Cache) RecordAction(a Action) (Action, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = c.now()
	}
	if a.Status == "" {
		a.Status = StatusSent
	}

	_, err := c.db.Exec(`INSERT INTO actions
		(action_id, kind, target, label, counter, multiplier, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Kind, a.Target, a.Label, a.Counter, a.Multiplier, a.Status, a.Error,
		a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return a, fmt.Errorf("recording action: %w", err)
	}
	return a, nil
}

// ListActions returns the most recent actions, newest first. limit <= 0 means all.
func (c *Cache) ListActions(limit int) ([]Action, error) {
	query := `SELECT action_id, kind, target, label, counter, multiplier, status, error, created_at
		FROM actions ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var actions []Action
	for rows.Next() {
		var a Action
		var label, errText sql.NullString
		var counter sql.NullInt64
		var multiplier sql.NullFloat64
		var created string

		if err := rows.Scan(&a.ID, &a.Kind, &a.Target, &label, &counter, &multiplier, &a.Status, &errText, &created); err != nil {
			return nil, err
		}
		a.Label = label.String
		a.Error = errText.String
		a.Counter = int(counter.Int64)
		a.Multiplier = multiplier.Float64
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ActionCount returns the number of logged actions.
func (c *Cache) ActionCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM actions").Scan(&count)
	return count, err
}

// SaveSnapshot stores a normalized snapshot and prunes old ones for the same window.
func (c *Cache) SaveSnapshot(snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = c.now()
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT INTO snapshots (hours_back, fetched_at, campaigns, adsets, payload)
		VALUES (?, ?, ?, ?, ?)`,
		snap.HoursBack, fetched.UTC().Format(time.RFC3339Nano), len(snap.Campaigns), snap.AdsetCount(), payload,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM snapshots WHERE hours_back = ? AND snapshot_id NOT IN
		(SELECT snapshot_id FROM snapshots WHERE hours_back = ? ORDER BY snapshot_id DESC LIMIT ?)`,
		snap.HoursBack, snap.HoursBack, keepSnapshots,
	)
	if err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}

	return tx.Commit()
}

// LatestSnapshot returns the newest cached snapshot for the window.
func (c *Cache) LatestSnapshot(hoursBack int) (*model.Snapshot, error) {
	var payload []byte
	err := c.db.QueryRow(`SELECT payload FROM snapshots WHERE hours_back = ?
		ORDER BY snapshot_id DESC LIMIT 1`, hoursBack).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	if snap.Summary.PriorityDistribution == nil {
		snap.Summary.PriorityDistribution = map[int]int{}
	}
	return &snap, nil
}

// SnapshotCount returns the number of cached snapshots.
func (c *Cache) SnapshotCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}
