// Package corpus stores and replays named lift scenarios: an
// instruction's address, raw bytes, category, initial register state,
// and the p-code op sequence a generator would produce for it, together
// with the expected register deltas and lift status. It is the sqlite-
// backed golden-scenario record this module's CLI tools read from and
// write to, and the in-code seed for the scenarios spec.md's end-to-end
// examples describe.
package corpus

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sleighlift/pcodelift/pcode"
)

// Scenario is one recorded lift case.
type Scenario struct {
	Name             string
	Address          uint64
	Insn             []byte
	Category         pcode.Category
	InitialRegisters map[string]uint64
	Ops              []pcode.Op
	ExpectRegisters  map[string]uint64
	ExpectBranchTaken *uint64
	ExpectStatus     string
}

// Store is a sqlite-backed scenario table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS scenarios (
		name TEXT PRIMARY KEY,
		address INTEGER NOT NULL,
		insn BLOB NOT NULL,
		category INTEGER NOT NULL,
		initial_registers TEXT NOT NULL,
		ops TEXT NOT NULL,
		expect_registers TEXT NOT NULL,
		expect_branch_taken TEXT,
		expect_status TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("corpus: create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put inserts or replaces sc under its Name.
func (s *Store) Put(sc Scenario) error {
	initJSON, err := json.Marshal(sc.InitialRegisters)
	if err != nil {
		return fmt.Errorf("corpus: marshal initial registers: %w", err)
	}
	opsJSON, err := json.Marshal(sc.Ops)
	if err != nil {
		return fmt.Errorf("corpus: marshal ops: %w", err)
	}
	expectJSON, err := json.Marshal(sc.ExpectRegisters)
	if err != nil {
		return fmt.Errorf("corpus: marshal expected registers: %w", err)
	}
	var branchJSON []byte
	if sc.ExpectBranchTaken != nil {
		branchJSON, err = json.Marshal(*sc.ExpectBranchTaken)
		if err != nil {
			return fmt.Errorf("corpus: marshal expected branch-taken: %w", err)
		}
	}

	_, err = s.db.Exec(`INSERT INTO scenarios(
			name, address, insn, category, initial_registers, ops, expect_registers, expect_branch_taken, expect_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			address=excluded.address, insn=excluded.insn, category=excluded.category,
			initial_registers=excluded.initial_registers, ops=excluded.ops,
			expect_registers=excluded.expect_registers, expect_branch_taken=excluded.expect_branch_taken,
			expect_status=excluded.expect_status`,
		sc.Name, sc.Address, sc.Insn, int(sc.Category), string(initJSON), string(opsJSON),
		string(expectJSON), string(branchJSON), sc.ExpectStatus)
	if err != nil {
		return fmt.Errorf("corpus: put %s: %w", sc.Name, err)
	}
	return nil
}

// Get reads one scenario by name.
func (s *Store) Get(name string) (Scenario, error) {
	row := s.db.QueryRow(`SELECT
			name, address, insn, category, initial_registers, ops, expect_registers, expect_branch_taken, expect_status
		FROM scenarios WHERE name = ?`, name)

	var sc Scenario
	var category int
	var initJSON, opsJSON, expectJSON string
	var branchJSON sql.NullString
	if err := row.Scan(&sc.Name, &sc.Address, &sc.Insn, &category, &initJSON, &opsJSON, &expectJSON, &branchJSON, &sc.ExpectStatus); err != nil {
		return Scenario{}, fmt.Errorf("corpus: get %s: %w", name, err)
	}
	sc.Category = pcode.Category(category)
	if err := json.Unmarshal([]byte(initJSON), &sc.InitialRegisters); err != nil {
		return Scenario{}, fmt.Errorf("corpus: unmarshal initial registers: %w", err)
	}
	if err := json.Unmarshal([]byte(opsJSON), &sc.Ops); err != nil {
		return Scenario{}, fmt.Errorf("corpus: unmarshal ops: %w", err)
	}
	if err := json.Unmarshal([]byte(expectJSON), &sc.ExpectRegisters); err != nil {
		return Scenario{}, fmt.Errorf("corpus: unmarshal expected registers: %w", err)
	}
	if branchJSON.Valid && branchJSON.String != "" {
		var v uint64
		if err := json.Unmarshal([]byte(branchJSON.String), &v); err != nil {
			return Scenario{}, fmt.Errorf("corpus: unmarshal expected branch-taken: %w", err)
		}
		sc.ExpectBranchTaken = &v
	}
	return sc, nil
}

// List returns every scenario name, alphabetically.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("corpus: list: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("corpus: list: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
