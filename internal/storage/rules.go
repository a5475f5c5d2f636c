package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
)

const ruleColumns = `id, name, pattern, pattern_type, category, subcategory, direction,
	scope, owner_id, priority, is_active, high_trust, match_count, created_at, updated_at`

// ruleOrder is the engine's evaluation order: user rules first, then priority, then insertion.
const ruleOrder = `ORDER BY CASE scope WHEN 'user' THEN 0 ELSE 1 END, priority ASC, id ASC`

// CreateRule stores a new classification rule and sets its ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.ClassificationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule != nil {
		rule.ApplyDefaults()
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		INSERT INTO classification_rules (
			name, pattern, pattern_type, category, subcategory, direction,
			scope, owner_id, priority, is_active, high_trust
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Pattern, rule.PatternType, rule.Category, rule.Subcategory, rule.Direction,
		rule.Scope, rule.OwnerID, rule.Priority, rule.IsActive, rule.HighTrust,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	now := time.Now()
	rule.ID = int(id)
	rule.MatchCount = 0
	rule.CreatedAt = now
	rule.UpdatedAt = now

	slog.Debug("created rule", "id", rule.ID, "pattern", rule.Pattern, "category", rule.Category)
	return nil
}

// GetRule retrieves a rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int) (*model.ClassificationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM classification_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// ListRules returns the rules visible to userID in evaluation order: the user's
// own rules followed by every global rule. An empty userID lists global rules only.
func (s *SQLiteStorage) ListRules(ctx context.Context, userID string) ([]model.ClassificationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM classification_rules
		WHERE scope = 'global' OR (scope = 'user' AND owner_id = ? AND owner_id != '')
		` + ruleOrder
	return s.queryRules(ctx, query, userID)
}

// ListAllRules returns every rule of every owner in evaluation order.
func (s *SQLiteStorage) ListAllRules(ctx context.Context) ([]model.ClassificationRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `SELECT `+ruleColumns+` FROM classification_rules `+ruleOrder)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.ClassificationRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rules := []model.ClassificationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// UpdateRule updates an existing rule. The match count is left untouched.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.ClassificationRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		UPDATE classification_rules SET
			name = ?, pattern = ?, pattern_type = ?, category = ?, subcategory = ?,
			direction = ?, scope = ?, owner_id = ?, priority = ?, is_active = ?,
			high_trust = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Pattern, rule.PatternType, rule.Category, rule.Subcategory,
		rule.Direction, rule.Scope, rule.OwnerID, rule.Priority, rule.IsActive,
		rule.HighTrust, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}

	rule.UpdatedAt = time.Now()
	return nil
}

// DeleteRule deletes a rule. Transactions it classified keep their category.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM classification_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}

// ApplyMatchCounts adds per-rule match deltas from one classification pass in a
// single transaction. Each update is an in-database increment, so concurrent
// passes never lose counts. Rules deleted since the pass are skipped.
func (s *SQLiteStorage) ApplyMatchCounts(ctx context.Context, deltas map[int]int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]int, 0, len(deltas))
	for id, delta := range deltas {
		if delta > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"UPDATE classification_rules SET match_count = match_count + ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("failed to prepare match count update: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, id := range ids {
			result, err := stmt.ExecContext(ctx, deltas[id], id)
			if err != nil {
				return fmt.Errorf("failed to update match count for rule %d: %w", id, err)
			}
			if n, err := result.RowsAffected(); err == nil && n == 0 {
				slog.Warn("skipping match count for missing rule", "rule_id", id, "delta", deltas[id])
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*model.ClassificationRule, error) {
	var rule model.ClassificationRule
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Pattern, &rule.PatternType, &rule.Category, &rule.Subcategory,
		&rule.Direction, &rule.Scope, &rule.OwnerID, &rule.Priority, &rule.IsActive,
		&rule.HighTrust, &rule.MatchCount, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
