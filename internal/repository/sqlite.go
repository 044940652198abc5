package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteStore keeps rule-sets of any number of families in one SQLite
// database. Decimals are stored as TEXT. Rule-sets are never updated in
// place: load order is insertion order, which decides duplicate dates.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path. Use ":memory:" for an
// in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_foreign_keys=on&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rule_sets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		family TEXT NOT NULL,
		effective_start TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rule_sets_family_start
		ON rule_sets(family, effective_start);

	CREATE TABLE IF NOT EXISTS brackets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		rule_set_id INTEGER NOT NULL REFERENCES rule_sets(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		range_start TEXT NOT NULL,
		range_end TEXT,
		fixed_amount TEXT NOT NULL,
		percentage_rate TEXT NOT NULL,
		parts TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_brackets_rule_set
		ON brackets(rule_set_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a validated rule-set for family and returns its row id
func (s *SQLiteStore) Save(ctx context.Context, family string, rs domain.RuleSet) (int64, error) {
	if err := ValidateRuleSet(rs); err != nil {
		return 0, fmt.Errorf("invalid rule-set: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertRuleSet(ctx, tx, family, rs)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// ReplaceFamily atomically swaps every stored rule-set of family for ruleSets
func (s *SQLiteStore) ReplaceFamily(ctx context.Context, family string, ruleSets []domain.RuleSet) error {
	for _, rs := range ruleSets {
		if err := ValidateRuleSet(rs); err != nil {
			return fmt.Errorf("invalid rule-set %s: %w", rs.EffectiveStart, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM brackets WHERE rule_set_id IN (SELECT id FROM rule_sets WHERE family = ?)`, family); err != nil {
		return fmt.Errorf("failed to delete brackets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_sets WHERE family = ?`, family); err != nil {
		return fmt.Errorf("failed to delete rule-sets: %w", err)
	}
	for _, rs := range ruleSets {
		if _, err := insertRuleSet(ctx, tx, family, rs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertRuleSet(ctx context.Context, tx *sql.Tx, family string, rs domain.RuleSet) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rule_sets (family, effective_start, label, imported_at) VALUES (?, ?, ?, ?)`,
		family, rs.EffectiveStart.String(), rs.Label, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to insert rule-set: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read rule-set id: %w", err)
	}

	for pos, b := range rs.Brackets {
		var rangeEnd sql.NullString
		if b.RangeEnd != nil {
			rangeEnd = sql.NullString{String: b.RangeEnd.String(), Valid: true}
		}
		var parts sql.NullString
		if len(b.Parts) > 0 {
			data, err := json.Marshal(b.Parts)
			if err != nil {
				return 0, fmt.Errorf("failed to encode parts: %w", err)
			}
			parts = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO brackets (rule_set_id, position, range_start, range_end, fixed_amount, percentage_rate, parts)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, pos, b.RangeStart.String(), rangeEnd, b.FixedAmount.String(), b.PercentageRate.String(), parts); err != nil {
			return 0, fmt.Errorf("failed to insert bracket: %w", err)
		}
	}
	return id, nil
}

// Families returns every family with at least one stored rule-set
func (s *SQLiteStore) Families(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT family FROM rule_sets ORDER BY family`)
	if err != nil {
		return nil, unavailable("failed to list families: %v", err)
	}
	defer rows.Close()

	var families []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, unavailable("failed to scan family: %v", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

// Repository returns a read view of one family
func (s *SQLiteStore) Repository(family string) Repository {
	return &sqliteFamily{store: s, family: family}
}

type sqliteFamily struct {
	store  *SQLiteStore
	family string
}

const selectRuleSets = `
	SELECT r.id, r.effective_start, r.label,
	       b.range_start, b.range_end, b.fixed_amount, b.percentage_rate, b.parts
	FROM rule_sets r
	JOIN brackets b ON b.rule_set_id = r.id
	WHERE r.family = ?`

func (f *sqliteFamily) LoadAll(ctx context.Context) ([]domain.RuleSet, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	rows, err := f.store.db.QueryContext(ctx, selectRuleSets+` ORDER BY r.id, b.position`, f.family)
	if err != nil {
		return nil, unavailable("%s: query failed: %v", f.family, err)
	}
	defer rows.Close()

	ruleSets, err := scanRuleSets(rows)
	if err != nil {
		return nil, unavailable("%s: %v", f.family, err)
	}
	for _, rs := range ruleSets {
		if err := ValidateRuleSet(rs); err != nil {
			return nil, unavailable("%s rule-set %s: %v", f.family, rs.EffectiveStart, err)
		}
	}
	return ruleSets, nil
}

// LoadOne returns the most recently imported rule-set for the date
func (f *sqliteFamily) LoadOne(ctx context.Context, effectiveStart domain.Date) (domain.RuleSet, error) {
	if err := checkContext(ctx); err != nil {
		return domain.RuleSet{}, err
	}
	rows, err := f.store.db.QueryContext(ctx,
		selectRuleSets+` AND r.id = (SELECT MAX(id) FROM rule_sets WHERE family = ? AND effective_start = ?) ORDER BY b.position`,
		f.family, f.family, effectiveStart.String())
	if err != nil {
		return domain.RuleSet{}, unavailable("%s: query failed: %v", f.family, err)
	}
	defer rows.Close()

	ruleSets, err := scanRuleSets(rows)
	if err != nil {
		return domain.RuleSet{}, unavailable("%s: %v", f.family, err)
	}
	if len(ruleSets) == 0 {
		return domain.RuleSet{}, unavailable("no %s rule-set effective %s", f.family, effectiveStart)
	}
	if err := ValidateRuleSet(ruleSets[0]); err != nil {
		return domain.RuleSet{}, unavailable("%s rule-set %s: %v", f.family, effectiveStart, err)
	}
	return ruleSets[0], nil
}

// scanRuleSets groups joined rows, which arrive ordered by rule-set id
func scanRuleSets(rows *sql.Rows) ([]domain.RuleSet, error) {
	var (
		ruleSets []domain.RuleSet
		lastID   int64 = -1
	)
	for rows.Next() {
		var (
			id                      int64
			start, label            string
			rangeStart, fixed, rate string
			rangeEnd, parts         sql.NullString
		)
		if err := rows.Scan(&id, &start, &label, &rangeStart, &rangeEnd, &fixed, &rate, &parts); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if id != lastID {
			effective, err := domain.ParseDate(start)
			if err != nil {
				return nil, err
			}
			ruleSets = append(ruleSets, domain.RuleSet{EffectiveStart: effective, Label: label})
			lastID = id
		}

		b, err := decodeBracketRow(rangeStart, rangeEnd, fixed, rate, parts)
		if err != nil {
			return nil, err
		}
		current := &ruleSets[len(ruleSets)-1]
		current.Brackets = append(current.Brackets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ruleSets, nil
}

func decodeBracketRow(rangeStart string, rangeEnd sql.NullString, fixed, rate string, parts sql.NullString) (domain.Bracket, error) {
	var (
		b   domain.Bracket
		err error
	)
	if b.RangeStart, err = decimal.NewFromString(rangeStart); err != nil {
		return b, fmt.Errorf("bad range_start %q: %w", rangeStart, err)
	}
	if rangeEnd.Valid {
		end, err := decimal.NewFromString(rangeEnd.String)
		if err != nil {
			return b, fmt.Errorf("bad range_end %q: %w", rangeEnd.String, err)
		}
		b.RangeEnd = &end
	}
	if b.FixedAmount, err = decimal.NewFromString(fixed); err != nil {
		return b, fmt.Errorf("bad fixed_amount %q: %w", fixed, err)
	}
	if b.PercentageRate, err = decimal.NewFromString(rate); err != nil {
		return b, fmt.Errorf("bad percentage_rate %q: %w", rate, err)
	}
	if parts.Valid {
		if err := json.Unmarshal([]byte(parts.String), &b.Parts); err != nil {
			return b, fmt.Errorf("bad parts: %w", err)
		}
	}
	return b, nil
}
