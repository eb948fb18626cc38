package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coojiin/credit-card-helper/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local record store backing user cards and their
// transaction history.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ UserCardStore    = (*SQLiteRepository)(nil)
	_ TransactionStore = (*SQLiteRepository)(nil)
	_ MirrorQueue      = (*SQLiteRepository)(nil)
)

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

func (r *SQLiteRepository) CreateUserCard(ctx context.Context, card core.UserCard) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_cards (id, card_def_id, billing_cycle_day, enabled) VALUES (?, ?, ?, ?)`,
		card.ID, card.CardDefID, card.BillingCycleDay, boolToInt(card.Enabled))
	if err != nil {
		return fmt.Errorf("create user card: %w", err)
	}

	slog.InfoContext(ctx, "User card saved",
		"id", card.ID,
		"card_def_id", card.CardDefID,
		"billing_cycle_day", card.BillingCycleDay)
	return nil
}

func (r *SQLiteRepository) GetUserCard(ctx context.Context, id string) (*core.UserCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, card_def_id, billing_cycle_day, enabled FROM user_cards WHERE id = ?`, id)

	var card core.UserCard
	var enabled int
	if err := row.Scan(&card.ID, &card.CardDefID, &card.BillingCycleDay, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user card: %w", err)
	}
	card.Enabled = enabled != 0
	return &card, nil
}

func (r *SQLiteRepository) ListUserCards(ctx context.Context) ([]core.UserCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_def_id, billing_cycle_day, enabled FROM user_cards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list user cards: %w", err)
	}
	defer rows.Close()

	var cards []core.UserCard
	for rows.Next() {
		var card core.UserCard
		var enabled int
		if err := rows.Scan(&card.ID, &card.CardDefID, &card.BillingCycleDay, &enabled); err != nil {
			return nil, fmt.Errorf("scan user card: %w", err)
		}
		card.Enabled = enabled != 0
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *SQLiteRepository) UpdateUserCard(ctx context.Context, card core.UserCard) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_cards SET billing_cycle_day = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		card.BillingCycleDay, boolToInt(card.Enabled), card.ID)
	if err != nil {
		return fmt.Errorf("update user card: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteUserCard(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user card: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM user_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user card: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	// Cascade: orphaned transactions would otherwise pollute backups forever.
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_card_id = ?`, id); err != nil {
		return fmt.Errorf("delete card transactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user card: %w", err)
	}

	slog.InfoContext(ctx, "User card removed with its transactions", "id", id)
	return nil
}

func (r *SQLiteRepository) UpsertUserCard(ctx context.Context, card core.UserCard) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_cards (id, card_def_id, billing_cycle_day, enabled) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   card_def_id = excluded.card_def_id,
		   billing_cycle_day = excluded.billing_cycle_day,
		   enabled = excluded.enabled,
		   updated_at = CURRENT_TIMESTAMP`,
		card.ID, card.CardDefID, card.BillingCycleDay, boolToInt(card.Enabled))
	if err != nil {
		return fmt.Errorf("upsert user card: %w", err)
	}
	return nil
}

const txColumns = `id, user_card_id, ts_ms, amount_cents, category, reward_cents, note`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserCardID, tx.Timestamp, tx.Amount.Cents, tx.Category, tx.RewardAmount.Cents, tx.Note)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_card_id", tx.UserCardID,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents,
		"reward_cents", tx.RewardAmount.Cents)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_card_id = ? ORDER BY ts_ms DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsInRange(ctx context.Context, cardID string, startMs, endMs int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE user_card_id = ? AND ts_ms >= ? AND ts_ms <= ?
		 ORDER BY ts_ms DESC`, cardID, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY ts_ms DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, reward_cents = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		tx.Amount.Cents, tx.RewardAmount.Cents, tx.Note, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) UpsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_card_id = excluded.user_card_id,
		   ts_ms = excluded.ts_ms,
		   amount_cents = excluded.amount_cents,
		   category = excluded.category,
		   reward_cents = excluded.reward_cents,
		   note = excluded.note,
		   updated_at = CURRENT_TIMESTAMP`,
		tx.ID, tx.UserCardID, tx.Timestamp, tx.Amount.Cents, tx.Category, tx.RewardAmount.Cents, tx.Note)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListPendingMirror(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE mirror_state = ? ORDER BY ts_ms LIMIT ?`,
		MirrorPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirror transactions: %w", err)
	}
	return collectTransactions(rows)
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	if err := r.setMirrorState(ctx, id, MirrorDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as mirrored", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	if err := r.setMirrorState(ctx, id, MirrorError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with mirror error", "id", id)
	return nil
}

func (r *SQLiteRepository) setMirrorState(ctx context.Context, id string, state int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirror_state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set mirror state: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var tx core.Transaction
	if err := row.Scan(&tx.ID, &tx.UserCardID, &tx.Timestamp, &tx.Amount.Cents, &tx.Category, &tx.RewardAmount.Cents, &tx.Note); err != nil {
		return nil, err
	}
	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
