// Package export writes a point-in-time snapshot of the semantic model to a
// SQLite database for external tooling. The database is a plain export
// format; the analyzer core itself never reads it back.
package export

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	analyzer "github.com/max-frai/rust-analyzer"
)

// Store is the SQLite writer for snapshot exports.
type Store struct {
	db *sql.DB
}

// Open creates or opens the export database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open export database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping export database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate export database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, mainly for tests and ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS modules (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  crate_id    INTEGER NOT NULL,
  parent_id   INTEGER REFERENCES modules(id),
  name        TEXT NOT NULL,
  file_path   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scope_entries (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  module_id   INTEGER NOT NULL REFERENCES modules(id),
  name        TEXT NOT NULL,
  type_kind   TEXT,
  value_kind  TEXT,
  file_path   TEXT,
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS problems (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  module_id   INTEGER NOT NULL REFERENCES modules(id),
  kind        TEXT NOT NULL,
  candidate   TEXT NOT NULL,
  move_to     TEXT
);

CREATE INDEX IF NOT EXISTS idx_modules_crate ON modules(crate_id);
CREATE INDEX IF NOT EXISTS idx_scope_entries_module ON scope_entries(module_id);
CREATE INDEX IF NOT EXISTS idx_scope_entries_name ON scope_entries(name);
CREATE INDEX IF NOT EXISTS idx_problems_module ON problems(module_id);
`

// Snapshot walks every crate's module tree in the given analysis snapshot
// and writes modules, visible scope entries, and problems in one
// transaction. Returns ErrCanceled via the analysis queries if a new
// revision lands mid-export.
func (s *Store) Snapshot(a *analyzer.Analysis) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin export transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM problems", "DELETE FROM scope_entries", "DELETE FROM modules",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clear export tables: %w", err)
		}
	}

	for _, crate := range a.Crates() {
		root, err := crate.RootModule()
		if err != nil {
			return fmt.Errorf("crate %d root module: %w", crate.ID(), err)
		}
		if root == nil {
			continue
		}
		seen := map[analyzer.Module]bool{}
		if err := s.exportModule(tx, crate.ID(), *root, 0, seen); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// exportModule writes one module and recurses into its children. seen
// guards against module graphs where a file is declared from two places.
func (s *Store) exportModule(tx *sql.Tx, crate analyzer.CrateID, m analyzer.Module, parentID int64, seen map[analyzer.Module]bool) error {
	if seen[m] {
		return nil
	}
	seen[m] = true
	name, err := m.Name()
	if err != nil {
		return fmt.Errorf("module name: %w", err)
	}
	src, err := m.DefinitionSource()
	if err != nil {
		return fmt.Errorf("module source: %w", err)
	}

	var parent any
	if parentID != 0 {
		parent = parentID
	}
	res, err := tx.Exec(
		"INSERT INTO modules (crate_id, parent_id, name, file_path) VALUES (?, ?, ?, ?)",
		crate, parent, name, src.Path,
	)
	if err != nil {
		return fmt.Errorf("insert module: %w", err)
	}
	moduleID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("module rowid: %w", err)
	}

	scope, err := m.Scope()
	if err != nil {
		return fmt.Errorf("module scope: %w", err)
	}
	for _, entryName := range scope.Names() {
		per, _ := scope.Get(entryName)
		var typeKind, valueKind any
		loc := analyzer.Location{}
		if def, ok := per.Types(); ok {
			typeKind = def.Kind().String()
			if l, err := def.Source(); err == nil {
				loc = l
			} else {
				return fmt.Errorf("scope entry source: %w", err)
			}
		}
		if def, ok := per.Values(); ok {
			valueKind = def.Kind().String()
			if loc.Path == "" {
				if l, err := def.Source(); err == nil {
					loc = l
				} else {
					return fmt.Errorf("scope entry source: %w", err)
				}
			}
		}
		_, err := tx.Exec(
			`INSERT INTO scope_entries
			   (module_id, name, type_kind, value_kind, file_path, start_line, start_col, end_line, end_col)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			moduleID, entryName, typeKind, valueKind, loc.Path,
			loc.Range.StartLine, loc.Range.StartCol, loc.Range.EndLine, loc.Range.EndCol,
		)
		if err != nil {
			return fmt.Errorf("insert scope entry: %w", err)
		}
	}

	problems, err := m.Problems()
	if err != nil {
		return fmt.Errorf("module problems: %w", err)
	}
	for _, p := range problems {
		kind := "unresolved-module"
		var moveTo any
		if p.Kind == analyzer.ProblemNotDirOwner {
			kind = "not-dir-owner"
			moveTo = p.MoveTo
		}
		if _, err := tx.Exec(
			"INSERT INTO problems (module_id, kind, candidate, move_to) VALUES (?, ?, ?, ?)",
			moduleID, kind, p.Candidate, moveTo,
		); err != nil {
			return fmt.Errorf("insert problem: %w", err)
		}
	}

	children, err := m.Children()
	if err != nil {
		return fmt.Errorf("module children: %w", err)
	}
	for _, child := range children {
		if err := s.exportModule(tx, crate, child, moduleID, seen); err != nil {
			return err
		}
	}
	return nil
}
