package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

const transactionColumns = `id, hash, date, amount, kind, description, payee, section,
	category, subcategory, confidence, needs_review, rule_id, check_number, card_last4, line_index`

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	NeedsReview *bool
	Section     model.SectionCode
	Category    string
	From        string // inclusive YYYY-MM-DD
	To          string // inclusive YYYY-MM-DD
	Limit       int
}

// SaveTransactions inserts transactions, skipping any whose hash is already
// stored. It returns how many rows were inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	inserted, err := s.InsertTransactions(ctx, transactions)
	if err != nil {
		return 0, err
	}
	return len(inserted), nil
}

// InsertTransactions is SaveTransactions returning the rows that were actually
// inserted, in input order.
func (s *SQLiteStorage) InsertTransactions(ctx context.Context, transactions []model.Transaction) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactions(transactions); err != nil {
		return nil, err
	}

	var inserted []model.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			result, err := stmt.ExecContext(ctx,
				txn.ID, txn.Hash, txn.Date, txn.Amount.StringFixed(2), txn.Kind, txn.Description,
				txn.Payee, txn.Section, categoryOrDefault(txn.Category), txn.Subcategory,
				txn.Confidence, txn.NeedsReview, nullableRuleID(txn.RuleID),
				txn.CheckNumber, txn.CardLast4, txn.LineIndex,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
			if n, err := result.RowsAffected(); err == nil && n > 0 {
				inserted = append(inserted, txn)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("saved transactions",
		"inserted", len(inserted),
		"duplicates", len(transactions)-len(inserted))

	return inserted, nil
}

// UpdateClassifications writes the category fields of already stored transactions.
func (s *SQLiteStorage) UpdateClassifications(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE transactions SET
				category = ?, subcategory = ?, confidence = ?, needs_review = ?, rule_id = ?
			WHERE id = ?
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			result, err := stmt.ExecContext(ctx,
				categoryOrDefault(txn.Category), txn.Subcategory, txn.Confidence,
				txn.NeedsReview, nullableRuleID(txn.RuleID), txn.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrNotFound)
			}
		}
		return nil
	})
}

// GetTransactionByID retrieves a single transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions returns stored transactions ordered by date.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.NeedsReview != nil {
		where = append(where, "needs_review = ?")
		args = append(args, *filter.NeedsReview)
	}
	if filter.Section != "" {
		where = append(where, "section = ?")
		args = append(args, filter.Section)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.From != "" {
		where = append(where, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "date <= ?")
		args = append(args, filter.To)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, section ASC, line_index ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	transactions := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn    model.Transaction
		ruleID sql.NullInt64
	)
	err := row.Scan(
		&txn.ID, &txn.Hash, &txn.Date, &txn.Amount, &txn.Kind, &txn.Description, &txn.Payee,
		&txn.Section, &txn.Category, &txn.Subcategory, &txn.Confidence, &txn.NeedsReview,
		&ruleID, &txn.CheckNumber, &txn.CardLast4, &txn.LineIndex,
	)
	if err != nil {
		return nil, err
	}
	if ruleID.Valid {
		id := int(ruleID.Int64)
		txn.RuleID = &id
	}
	return &txn, nil
}

func nullableRuleID(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func categoryOrDefault(category string) string {
	if category == "" {
		return model.UncategorizedCategory
	}
	return category
}
