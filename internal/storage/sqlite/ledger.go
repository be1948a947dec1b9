package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateTransaction persists a transaction and its splits.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, group_id, description, amount, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, nullable(t.GroupID), t.Description, t.Amount, t.Currency, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i := range t.Splits {
		split := &t.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.TransactionID = t.ID

		_, err = tx.ExecContext(ctx,
			`INSERT INTO splits (id, transaction_id, user_id, amount, is_paid, paid_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			split.ID, t.ID, split.UserID, split.Amount, split.IsPaid, split.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID, including all of its splits.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	t := &models.Transaction{}
	var groupID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, group_id, description, amount, currency, created_at
		 FROM transactions WHERE id = ?`,
		transactionID,
	).Scan(&t.ID, &t.OwnerID, &groupID, &t.Description, &t.Amount, &t.Currency, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	t.GroupID = groupID.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, transaction_id, user_id, amount, is_paid, paid_at
		 FROM splits WHERE transaction_id = ? ORDER BY rowid`,
		transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.Split
		if err := rows.Scan(&split.ID, &split.TransactionID, &split.UserID, &split.Amount, &split.IsPaid, &split.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		t.Splits = append(t.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return t, nil
}

// pendingSplitQuery joins splits with their transaction and both parties'
// names. The first argument is the viewer used to pick the counterparty name.
const pendingSplitQuery = `
SELECT s.id, s.transaction_id, s.user_id, s.amount, s.is_paid, s.paid_at,
       t.owner_id, t.currency, t.description, COALESCE(t.group_id, ''), t.created_at,
       CASE WHEN s.user_id = ? THEN COALESCE(o.display_name, '') ELSE COALESCE(d.display_name, '') END
FROM splits s
JOIN transactions t ON t.id = s.transaction_id
LEFT JOIN users o ON o.id = t.owner_id
LEFT JOIN users d ON d.id = s.user_id
`

func scanPendingSplit(row scanner) (models.PendingSplit, error) {
	var p models.PendingSplit
	err := row.Scan(
		&p.ID, &p.TransactionID, &p.UserID, &p.Amount, &p.IsPaid, &p.PaidAt,
		&p.OwnerID, &p.Currency, &p.Description, &p.GroupID, &p.CreatedAt,
		&p.CounterpartyName,
	)
	return p, err
}

// GetSplit retrieves a single split with its transaction context.
// CounterpartyName holds the debtor's display name.
func (s *SQLiteStore) GetSplit(ctx context.Context, splitID string) (*models.PendingSplit, error) {
	row := s.db.QueryRowContext(ctx, pendingSplitQuery+`WHERE s.id = ?`, "", splitID)
	p, err := scanPendingSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	return &p, nil
}

// ListPendingSplits retrieves unpaid splits the viewer is party to.
func (s *SQLiteStore) ListPendingSplits(ctx context.Context, viewerID, groupID string) ([]models.PendingSplit, error) {
	rows, err := s.db.QueryContext(ctx,
		pendingSplitQuery+`
		WHERE s.is_paid = 0
		  AND (s.user_id = ? OR t.owner_id = ?)
		  AND (? = '' OR t.group_id = ?)
		ORDER BY t.created_at DESC, s.rowid`,
		viewerID, viewerID, viewerID, groupID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending splits: %w", err)
	}
	defer rows.Close()

	var splits []models.PendingSplit
	for rows.Next() {
		p, err := scanPendingSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending split: %w", err)
		}
		splits = append(splits, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending splits: %w", err)
	}

	return splits, nil
}

// MarkSplitsPaid flags the given splits as paid.
func (s *SQLiteStore) MarkSplitsPaid(ctx context.Context, splitIDs []string) (int64, error) {
	if len(splitIDs) == 0 {
		return 0, nil
	}
	return markSplitsPaid(ctx, s.db, splitIDs, time.Now().Unix())
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func markSplitsPaid(ctx context.Context, db execer, splitIDs []string, paidAt int64) (int64, error) {
	args := append([]any{paidAt}, stringArgs(splitIDs)...)
	res, err := db.ExecContext(ctx,
		`UPDATE splits SET is_paid = 1, paid_at = ?
		 WHERE is_paid = 0 AND id IN (`+placeholders(len(splitIDs))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark splits paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated splits: %w", err)
	}
	return n, nil
}

// CreateSettlement persists a settlement and marks its splits paid.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, created_at, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, nullable(settlement.GroupID), settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Currency, settlement.CreatedAt, settlement.CreatedBy, nullable(settlement.Note),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for _, splitID := range settlement.SplitIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO settlement_splits (settlement_id, split_id) VALUES (?, ?)",
			settlement.ID, splitID,
		)
		if err != nil {
			return fmt.Errorf("failed to link settlement split: %w", err)
		}
	}

	if len(settlement.SplitIDs) > 0 {
		if _, err := markSplitsPaid(ctx, tx, settlement.SplitIDs, settlement.CreatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const settlementColumns = `id, COALESCE(group_id, ''), from_user_id, to_user_id, amount, currency, created_at, created_by, note`

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = ? ORDER BY created_at DESC, rowid DESC`,
		groupID,
	)
}

// ListSettlementsForUser retrieves all settlements paid or received by userID, newest first.
func (s *SQLiteStore) ListSettlementsForUser(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE from_user_id = ? OR to_user_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		userID, userID,
	)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var note sql.NullString
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID, &settlement.ToUserID,
			&settlement.Amount, &settlement.Currency, &settlement.CreatedAt, &settlement.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.Note = note.String
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	rows.Close()

	for _, settlement := range settlements {
		ids, err := s.settlementSplitIDs(ctx, settlement.ID)
		if err != nil {
			return nil, err
		}
		settlement.SplitIDs = ids
	}
	return settlements, nil
}

func (s *SQLiteStore) settlementSplitIDs(ctx context.Context, settlementID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT split_id FROM settlement_splits WHERE settlement_id = ? ORDER BY rowid",
		settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement splits: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan settlement split: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement splits: %w", err)
	}
	return ids, nil
}
