package words

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLDictionary reads and writes the words table.
type SQLDictionary struct {
	db *sql.DB
}

// NewSQLDictionary wraps an already migrated database.
func NewSQLDictionary(db *sql.DB) *SQLDictionary {
	return &SQLDictionary{db: db}
}

// IsActive reports whether normalized is an active dictionary word.
func (d *SQLDictionary) IsActive(ctx context.Context, normalized string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM words WHERE normalized=? AND is_active=1`, normalized,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup word: %w", err)
	}
	return true, nil
}

// PickRandom draws one active word using SQLite's RANDOM() ordering.
func (d *SQLDictionary) PickRandom(ctx context.Context) (Word, error) {
	var w Word
	err := d.db.QueryRowContext(ctx,
		`SELECT word, normalized FROM words WHERE is_active=1 ORDER BY RANDOM() LIMIT 1`,
	).Scan(&w.Display, &w.Normalized)
	if errors.Is(err, sql.ErrNoRows) {
		return Word{}, ErrNoActiveWords
	}
	if err != nil {
		return Word{}, fmt.Errorf("pick word: %w", err)
	}
	return w, nil
}

// Import upserts list in a single transaction and returns the number of rows written.
// Existing rows keep their display form unless it is empty; the active flag is overwritten.
func (d *SQLDictionary) Import(ctx context.Context, list []Word, active bool) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (normalized, word, is_active) VALUES (?, ?, ?)
		ON CONFLICT(normalized) DO UPDATE SET is_active=excluded.is_active`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	flag := 0
	if active {
		flag = 1
	}
	n := 0
	for _, w := range list {
		if _, err := stmt.ExecContext(ctx, w.Normalized, w.Display, flag); err != nil {
			return n, fmt.Errorf("import %q: %w", w.Normalized, err)
		}
		n++
	}
	return n, tx.Commit()
}

// Stats returns (active, total) word counts.
func (d *SQLDictionary) Stats(ctx context.Context) (active int, total int, err error) {
	err = d.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(is_active),0), COUNT(*) FROM words`,
	).Scan(&active, &total)
	return active, total, err
}
