// Package storage is the durable SQLite backend. It persists the per-user
// ledger and the learned rule table, and keeps the sync bookkeeping the
// export worker drains.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
	"copilote/internal/export"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveRule implements rules.Repo. The (user_id, keyword) pair is unique;
// re-teaching a keyword overwrites its category in place, keeping the
// original row id so rule ordering stays stable.
func (r *SQLiteRepository) SaveRule(ctx context.Context, userID string, rule core.Rule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rules (user_id, keyword, label, category, subcategory)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, keyword) DO UPDATE SET
			label = excluded.label,
			category = excluded.category,
			subcategory = excluded.subcategory`,
		userID, rule.Keyword, rule.Label, string(rule.Category), rule.Subcategory)
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}

	slog.InfoContext(ctx, "Rule saved to SQLite",
		"user_id", userID,
		"keyword", rule.Keyword,
		"category", rule.Category)
	return nil
}

// ListRules implements rules.Repo, returning rules oldest first.
func (r *SQLiteRepository) ListRules(ctx context.Context, userID string) ([]core.Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT keyword, label, category, subcategory
		FROM rules WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.Rule
	for rows.Next() {
		var rule core.Rule
		var category string
		if err := rows.Scan(&rule.Keyword, &rule.Label, &category, &rule.Subcategory); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Category = core.Category(category)
		out = append(out, rule)
	}
	return out, rows.Err()
}

// AppendTransaction implements ledger.Repo. The seq column is the rowid
// alias, so the insert id is the insertion sequence.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, raw_label, cleaned_label, amount, category, subcategory, method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, userID, tx.Date.Format(dateLayout), tx.RawLabel, tx.CleanedLabel,
		tx.Amount.String(), string(tx.Category), tx.Subcategory, string(tx.Method))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction id: %w", err)
	}
	tx.Seq = seq
	tx.Version = 1

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"seq", seq,
		"label", tx.RawLabel,
		"category", tx.Category)
	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT seq, id, version, date, raw_label, cleaned_label, amount, category, subcategory, method
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, err
}

// UpdateTransactionCategory re-labels a stored transaction and re-queues it
// for export with a bumped version.
func (r *SQLiteRepository) UpdateTransactionCategory(ctx context.Context, userID, id string, category core.Category, subcategory string, method core.Method) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET category = ?, subcategory = ?, method = ?,
		    sync_status = 'pending', version = version + 1
		WHERE user_id = ? AND id = ?`,
		string(category), subcategory, string(method), userID, id)
	if err != nil {
		return fmt.Errorf("update transaction category: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction category: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, id, version, date, raw_label, cleaned_label, amount, category, subcategory, method
		FROM transactions WHERE user_id = ? ORDER BY date, seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// PendingSync implements export.SyncQueue.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]export.PendingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, user_id, id, version
		FROM transactions WHERE sync_status = 'pending'
		ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync rows: %w", err)
	}
	defer rows.Close()

	var out []export.PendingRow
	for rows.Next() {
		var p export.PendingRow
		if err := rows.Scan(&p.Seq, &p.UserID, &p.TxID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced implements export.SyncQueue.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, seq int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_status = 'synced' WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "seq", seq)
	return nil
}

// MarkSyncError implements export.SyncQueue. The row stays pending so the
// next sweep retries it; only the attempt counter moves.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, seq int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_attempts = sync_attempts + 1 WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "seq", seq)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var tx core.Transaction
	var date, amount, category, method string

	err := row.Scan(&tx.Seq, &tx.ID, &tx.Version, &date, &tx.RawLabel, &tx.CleanedLabel,
		&amount, &category, &tx.Subcategory, &method)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	tx.Date = core.Date{Time: t}

	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction amount %q: %w", amount, err)
	}

	tx.Category = core.Category(category)
	tx.Method = core.Method(method)
	return tx, nil
}
