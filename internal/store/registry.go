package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/contractum/internal/ir"
)

var (
	// ErrNotFound is returned when no interface is stored under an id.
	ErrNotFound = errors.New("interface not registered")

	// ErrCorrupt is returned when a stored body no longer derives its key.
	ErrCorrupt = errors.New("stored interface does not match its id")
)

// Entry summarises a registered interface.
type Entry struct {
	ID      ir.IfaceID `json:"id"`
	Name    string     `json:"name"`
	Version ir.VerNo   `json:"version"`
}

// Put registers iface and its inheritance edges and returns its id.
// Registering an interface that is already present is a no-op.
func (s *Store) Put(ctx context.Context, iface *ir.Interface) (ir.IfaceID, error) {
	ids, err := s.PutAll(ctx, iface)
	if err != nil {
		return iface.ID(), err
	}
	return ids[0], nil
}

// PutAll registers every interface in one transaction: either all of them
// are stored or none is. Ids are returned in argument order.
//
// Interfaces with names that are not NFC-normalized UTF-8 are refused, since
// their id does not pin the names byte for byte.
func (s *Store) PutAll(ctx context.Context, ifaces ...*ir.Interface) ([]ir.IfaceID, error) {
	for _, iface := range ifaces {
		if bad := iface.MalformedNames(); len(bad) > 0 {
			return nil, fmt.Errorf("put %s: %w: %q", iface.Name, ir.ErrMalformedName, bad[0])
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	ids := make([]ir.IfaceID, len(ifaces))
	for i, iface := range ifaces {
		if ids[i], err = putTx(ctx, tx, iface); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit put: %w", err)
	}
	return ids, nil
}

func putTx(ctx context.Context, tx *sql.Tx, iface *ir.Interface) (ir.IfaceID, error) {
	id := iface.ID()
	body, err := json.Marshal(iface)
	if err != nil {
		return id, fmt.Errorf("marshal interface %s: %w", iface.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO interfaces (id, name, version, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id.Hex(), iface.Name, int(iface.Version), string(body))
	if err != nil {
		return id, fmt.Errorf("insert interface %s: %w", iface.Name, err)
	}
	for _, parent := range iface.Inherits.Sorted() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO parents (child, parent) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, id.Hex(), parent.Hex())
		if err != nil {
			return id, fmt.Errorf("insert parent of %s: %w", iface.Name, err)
		}
	}
	return id, nil
}

// Get loads the interface stored under id.
//
// Returns ErrNotFound if the id is not registered and ErrCorrupt if the
// stored body derives a different id or carries malformed names.
func (s *Store) Get(ctx context.Context, id ir.IfaceID) (*ir.Interface, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM interfaces WHERE id = ?`, id.Hex()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query interface %s: %w", id, err)
	}

	var iface ir.Interface
	if err := json.Unmarshal([]byte(body), &iface); err != nil {
		return nil, fmt.Errorf("unmarshal interface %s: %w", id, err)
	}
	if derived := iface.ID(); derived != id {
		return nil, fmt.Errorf("%w: %s derives %s", ErrCorrupt, id, derived)
	}
	if bad := iface.MalformedNames(); len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s has malformed name %q", ErrCorrupt, id, bad[0])
	}
	return &iface, nil
}

// ResolveInterface implements compiler.Resolver.
func (s *Store) ResolveInterface(ctx context.Context, id ir.IfaceID) (*ir.Interface, error) {
	return s.Get(ctx, id)
}

// List returns every registered interface ordered by name, then id.
// Returns an empty slice (not nil) for an empty registry.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, name, version FROM interfaces
		ORDER BY name ASC, id ASC
	`)
}

// FindByName returns the registered interfaces called name, ordered by id.
// Several versions of an interface may share a name.
func (s *Store) FindByName(ctx context.Context, name string) ([]Entry, error) {
	return s.queryEntries(ctx, `
		SELECT id, name, version FROM interfaces
		WHERE name = ?
		ORDER BY id ASC
	`, name)
}

// Children returns the registered interfaces that inherit directly from
// parent, ordered by name, then id. parent itself need not be registered.
func (s *Store) Children(ctx context.Context, parent ir.IfaceID) ([]Entry, error) {
	return s.queryEntries(ctx, `
		SELECT i.id, i.name, i.version FROM interfaces i
		JOIN parents p ON p.child = i.id
		WHERE p.parent = ?
		ORDER BY i.name ASC, i.id ASC
	`, parent.Hex())
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interfaces: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			hexID   string
			entry   Entry
			version int
		)
		if err := rows.Scan(&hexID, &entry.Name, &version); err != nil {
			return nil, fmt.Errorf("scan interface: %w", err)
		}
		if entry.ID, err = parseHexID(hexID); err != nil {
			return nil, err
		}
		entry.Version = ir.VerNo(version)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interfaces: %w", err)
	}
	return entries, nil
}

func parseHexID(s string) (ir.IfaceID, error) {
	var id ir.IfaceID
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(id) {
		return id, fmt.Errorf("%w: bad id column %q", ErrCorrupt, s)
	}
	copy(id[:], raw)
	return id, nil
}
