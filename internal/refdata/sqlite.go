package refdata

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Current schema
const currentSchemaVersion = 1

// SQLite is a local reference data store backed by a SQLite database.
// It implements Store and is safe for concurrent use; SQLite itself
// serializes writes.
type SQLite struct {
	db *sql.DB
}

// Open creates or opens a reference database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// FindFlows returns candidates whose name or category contains the filter
// name, scoped by flow type and (for non-elementary flows) location. The
// match is deliberately coarse (precise ranking happens in the resolver)
// and the returned order is stable (name, then id) so tie-breaking is
// deterministic.
func (s *SQLite) FindFlows(ctx context.Context, filter FlowFilter) ([]Candidate, error) {
	query := `
		SELECT id, name, category, ref_unit FROM flows
		WHERE type = ?
		  AND (instr(lower(name), lower(?)) > 0 OR instr(lower(category), lower(?)) > 0)
	`
	args := []any{string(filter.Type), filter.Name, filter.Name}
	if filter.Type != Elementary && filter.Location != "" {
		query += " AND (location = ? OR location = '')"
		args = append(args, filter.Location)
	}
	query += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Unavailable("findFlows", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Ref.ID, &c.Ref.Name, &c.Category, &c.RefUnit); err != nil {
			return nil, Unavailable("findFlows", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("findFlows", err)
	}
	return candidates, nil
}

// GetFlow fetches the full record for an identity.
func (s *SQLite) GetFlow(ctx context.Context, id string) (Flow, error) {
	var f Flow
	var typ string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, category, property_id, property_name, ref_unit, location
		FROM flows WHERE id = ?
	`, id).Scan(&f.ID, &f.Name, &typ, &f.Category,
		&f.FlowProperty.ID, &f.FlowProperty.Name, &f.RefUnit, &f.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return Flow{}, NotFound("getFlow", id)
	}
	if err != nil {
		return Flow{}, Unavailable("getFlow", err)
	}
	f.Type = FlowType(typ)
	return f, nil
}

// CreateFlow inserts a new canonical flow. Inserting the identical record
// twice is a no-op; inserting different content under an existing identity
// is rejected with a write error.
func (s *SQLite) CreateFlow(ctx context.Context, flow Flow) error {
	existing, err := s.GetFlow(ctx, flow.ID)
	if err == nil {
		if existing == flow {
			return nil
		}
		return RemoteWrite("createFlow", flow.ID,
			fmt.Errorf("identity exists with different content (name %q)", existing.Name))
	}
	if !IsNotFound(err) {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flows (id, name, type, category, property_id, property_name, ref_unit, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, flow.ID, flow.Name, string(flow.Type), flow.Category,
		flow.FlowProperty.ID, flow.FlowProperty.Name, flow.RefUnit, flow.Location)
	if err != nil {
		return RemoteWrite("createFlow", flow.ID, err)
	}
	return nil
}

// ListUnitGroups returns every unit group with its member units, in a stable
// (name, id) order. Units within a group are ordered by symbol.
func (s *SQLite) ListUnitGroups(ctx context.Context) ([]UnitGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, default_property_id, default_property_name
		FROM unit_groups ORDER BY name, id
	`)
	if err != nil {
		return nil, Unavailable("listUnitGroups", err)
	}
	defer rows.Close()

	var groups []UnitGroup
	for rows.Next() {
		var g UnitGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.DefaultProperty.ID, &g.DefaultProperty.Name); err != nil {
			return nil, Unavailable("listUnitGroups", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("listUnitGroups", err)
	}

	for i := range groups {
		units, err := s.unitsOf(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Units = units
	}
	return groups, nil
}

func (s *SQLite) unitsOf(ctx context.Context, groupID string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, factor FROM units
		WHERE unit_group_id = ? ORDER BY symbol, id
	`, groupID)
	if err != nil {
		return nil, Unavailable("listUnitGroups", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Symbol, &u.Factor); err != nil {
			return nil, Unavailable("listUnitGroups", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetLocation looks a location up by name, case-insensitively.
func (s *SQLite) GetLocation(ctx context.Context, name string) (Location, error) {
	var loc Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, code FROM locations WHERE lower(name) = lower(?)
	`, strings.TrimSpace(name)).Scan(&loc.ID, &loc.Name, &loc.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return Location{}, NotFound("getLocation", name)
	}
	if err != nil {
		return Location{}, Unavailable("getLocation", err)
	}
	return loc, nil
}

// CreateLocation inserts a new location. Same idempotency contract as
// CreateFlow.
func (s *SQLite) CreateLocation(ctx context.Context, loc Location) error {
	existing, err := s.GetLocation(ctx, loc.Name)
	if err == nil {
		if existing == loc {
			return nil
		}
		return RemoteWrite("createLocation", loc.Name,
			fmt.Errorf("name exists with different content (id %s)", existing.ID))
	}
	if !IsNotFound(err) {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, code) VALUES (?, ?, ?)
	`, loc.ID, loc.Name, loc.Code)
	if err != nil {
		return RemoteWrite("createLocation", loc.Name, err)
	}
	return nil
}

// ProviderFor returns the default providing process linked to a flow.
func (s *SQLite) ProviderFor(ctx context.Context, flowID string) (Ref, error) {
	var ref Ref
	err := s.db.QueryRowContext(ctx, `
		SELECT process_id, process_name FROM providers WHERE flow_id = ?
	`, flowID).Scan(&ref.ID, &ref.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Ref{}, NotFound("providerFor", flowID)
	}
	if err != nil {
		return Ref{}, Unavailable("providerFor", err)
	}
	return ref, nil
}
