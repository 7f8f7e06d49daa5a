package collection

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spectro-data/dimuon.report/internal/hist"
	"github.com/spectro-data/dimuon.report/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Leaf kind tags used in the snapshot schema.
const (
	kindHistND = "histnd"
	kindHist1D = "hist1d"
)

// Store persists Collection snapshots to a SQLite database so results
// from independent processing units can be merged after the run. Each
// unit writes its collection under its own unit ID; a merge job loads
// every unit and folds them into one Collection.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a snapshot database at path and
// applies any pending schema migrations.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate snapshot schema: %w", err)
	}
	return nil
}

// Save writes the collection under unitID. An empty unitID gets a
// generated UUID; the used ID is returned. Saving the same unit ID
// twice replaces the previous snapshot.
func (s *Store) Save(unitID string, c *Collection) (string, error) {
	if unitID == "" {
		unitID = uuid.New().String()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_objects WHERE unit_id = ?`, unitID); err != nil {
		return "", fmt.Errorf("clear previous snapshot: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO snapshot_units (unit_id, collection_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(unit_id) DO UPDATE SET collection_name = excluded.collection_name, created_at = excluded.created_at`,
		unitID, c.Name(), time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("insert snapshot unit: %w", err)
	}

	for _, path := range c.Paths() {
		for _, name := range c.ObjectNames(path) {
			obj, _ := c.Get(path, name)
			kind, payload, err := encodeObject(obj)
			if err != nil {
				return "", fmt.Errorf("snapshot %s/%s: %w", path, name, err)
			}
			if _, err := tx.Exec(`
				INSERT INTO snapshot_objects (unit_id, path, name, kind, payload)
				VALUES (?, ?, ?, ?, ?)`,
				unitID, path, name, kind, payload); err != nil {
				return "", fmt.Errorf("insert snapshot object %s/%s: %w", path, name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	monitoring.Logf("[Snapshot] saved unit %s: %d objects (%.2f MB)", unitID, c.NumObjects(), float64(c.EstimateBytes())/1024.0/1024.0)
	return unitID, nil
}

// Units lists the unit IDs present in the store, oldest first.
func (s *Store) Units() ([]string, error) {
	rows, err := s.db.Query(`SELECT unit_id FROM snapshot_units ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot units: %w", err)
	}
	defer rows.Close()

	var units []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unit id: %w", err)
		}
		units = append(units, id)
	}
	return units, rows.Err()
}

// Load rebuilds the collection saved under unitID.
func (s *Store) Load(unitID string) (*Collection, error) {
	var name string
	err := s.db.QueryRow(`SELECT collection_name FROM snapshot_units WHERE unit_id = ?`, unitID).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot unit %s not found", unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot unit: %w", err)
	}

	rows, err := s.db.Query(`SELECT path, name, kind, payload FROM snapshot_objects WHERE unit_id = ?`, unitID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot objects: %w", err)
	}
	defer rows.Close()

	c := New(name)
	for rows.Next() {
		var path, objName, kind, payload string
		if err := rows.Scan(&path, &objName, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan snapshot object: %w", err)
		}
		obj, err := decodeObject(kind, payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", path, objName, err)
		}
		if _, err := c.GetOrCreate(path, objName, func() Object { return obj }); err != nil {
			return nil, err
		}
	}
	return c, rows.Err()
}

// LoadMerged loads every unit in the store and merges them into a
// single collection with the given name.
func (s *Store) LoadMerged(name string) (*Collection, error) {
	units, err := s.Units()
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("snapshot store is empty")
	}
	merged := New(name)
	for _, unit := range units {
		c, err := s.Load(unit)
		if err != nil {
			return nil, err
		}
		if err := merged.Merge(c); err != nil {
			return nil, fmt.Errorf("merge unit %s: %w", unit, err)
		}
	}
	monitoring.Logf("[Snapshot] merged %d units into %s (%d objects)", len(units), name, merged.NumObjects())
	return merged, nil
}

func encodeObject(obj Object) (kind string, payload []byte, err error) {
	switch o := obj.(type) {
	case *hist.HistND:
		payload, err = json.Marshal(o.Snapshot())
		return kindHistND, payload, err
	case *hist.Hist1D:
		payload, err = json.Marshal(o.Snapshot())
		return kindHist1D, payload, err
	}
	return "", nil, fmt.Errorf("unsupported leaf kind %T", obj)
}

func decodeObject(kind, payload string) (Object, error) {
	switch kind {
	case kindHistND:
		var snap hist.HistNDSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, err
		}
		return hist.RestoreHistND(snap)
	case kindHist1D:
		var snap hist.Hist1DSnapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, err
		}
		return hist.RestoreHist1D(snap)
	}
	return nil, fmt.Errorf("unknown leaf kind %q", kind)
}
