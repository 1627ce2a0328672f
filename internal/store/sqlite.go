package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
)

var (
	// ErrPlanNotFound indicates the requested plan id does not exist
	ErrPlanNotFound = errors.New("plan not found")

	// ErrDuplicateName indicates a plan with the same name already exists
	ErrDuplicateName = errors.New("a plan with that name already exists")
)

// nowFunc allows tests to freeze time
var nowFunc = time.Now

// StoredPlan is a saved plan configuration with its storage metadata
type StoredPlan struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Mode      string       `json:"mode"`
	Plan      *config.Plan `json:"plan"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PlanStore persists plan configurations to a SQLite database. At most one
// plan is active at a time.
type PlanStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewPlanStore opens (or creates) the SQLite database and runs migrations
func NewPlanStore(dbPath string) (*PlanStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so API reads do not block writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &PlanStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PlanStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL UNIQUE,
			mode       TEXT NOT NULL,
			config     TEXT NOT NULL,
			active     INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plans_active ON plans(active)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:30], err)
		}
	}
	return nil
}

// Save stores a new plan under its name and returns the stored record
func (s *PlanStore) Save(plan *config.Plan) (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Name == "" {
		return nil, fmt.Errorf("plan name is required")
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM plans WHERE name = ?`, plan.Name).Scan(&count); err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	blob, err := yaml.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	mode := plan.Mode
	if mode == "" {
		mode = calculation.ModePro
	}

	stored := &StoredPlan{
		ID:        uuid.New(),
		Name:      plan.Name,
		Mode:      mode,
		Plan:      plan,
		CreatedAt: nowFunc().UTC(),
	}
	stored.UpdatedAt = stored.CreatedAt

	_, err = s.db.Exec(`INSERT INTO plans (id, name, mode, config, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		stored.ID.String(), stored.Name, stored.Mode, string(blob),
		stored.CreatedAt.Unix(), stored.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return stored, nil
}

// Get returns the stored plan with the given id
func (s *PlanStore) Get(id uuid.UUID) (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, name, mode, config, active, created_at, updated_at
		FROM plans WHERE id = ?`, id.String())
	return scanPlan(row)
}

// List returns all stored plans, most recently updated first
func (s *PlanStore) List() ([]*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, name, mode, config, active, created_at, updated_at
		FROM plans ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*StoredPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Update replaces the configuration of an existing plan
func (s *PlanStore) Update(id uuid.UUID, plan *config.Plan) (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Name != "" {
		var count int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM plans WHERE name = ? AND id != ?`,
			plan.Name, id.String()).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("check name: %w", err)
		}
		if count > 0 {
			return nil, ErrDuplicateName
		}
	}

	blob, err := yaml.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	mode := plan.Mode
	if mode == "" {
		mode = calculation.ModePro
	}
	updatedAt := nowFunc().UTC()

	res, err := s.db.Exec(`UPDATE plans SET name = ?, mode = ?, config = ?, updated_at = ? WHERE id = ?`,
		plan.Name, mode, string(blob), updatedAt.Unix(), id.String())
	if err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrPlanNotFound
	}

	row := s.db.QueryRow(`SELECT id, name, mode, config, active, created_at, updated_at
		FROM plans WHERE id = ?`, id.String())
	return scanPlan(row)
}

// Delete removes a stored plan
func (s *PlanStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM plans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Activate marks one plan active and deactivates all others atomically
func (s *PlanStore) Activate(id uuid.UUID) (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE plans SET active = 0 WHERE active = 1`); err != nil {
		return nil, fmt.Errorf("deactivate plans: %w", err)
	}
	res, err := tx.Exec(`UPDATE plans SET active = 1, updated_at = ? WHERE id = ?`,
		nowFunc().UTC().Unix(), id.String())
	if err != nil {
		return nil, fmt.Errorf("activate plan: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrPlanNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT id, name, mode, config, active, created_at, updated_at
		FROM plans WHERE id = ?`, id.String())
	return scanPlan(row)
}

// ActivePlan returns the currently active plan, or ErrPlanNotFound when none
// is active
func (s *PlanStore) ActivePlan() (*StoredPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT id, name, mode, config, active, created_at, updated_at
		FROM plans WHERE active = 1`)
	return scanPlan(row)
}

// Close closes the underlying database
func (s *PlanStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*StoredPlan, error) {
	var (
		idText    string
		blob      string
		active    int
		createdAt int64
		updatedAt int64
	)
	stored := &StoredPlan{}

	err := row.Scan(&idText, &stored.Name, &stored.Mode, &blob, &active, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}

	stored.ID, err = uuid.Parse(idText)
	if err != nil {
		return nil, fmt.Errorf("parse plan id: %w", err)
	}

	var plan config.Plan
	if err := yaml.Unmarshal([]byte(blob), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	stored.Plan = &plan
	stored.Active = active == 1
	stored.CreatedAt = time.Unix(createdAt, 0).UTC()
	stored.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return stored, nil
}
