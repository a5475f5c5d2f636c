// Package testutil provides shared fixtures for tests that need a database.
package testutil

import (
	"context"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Rules   []model.ClassificationRule
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with rules.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewRule("chevron", "Fuel").Expenses().Build(),
//	)
func SetupTestDB(t *testing.T, rules ...model.ClassificationRule) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{
		Storage: store,
		t:       t,
	}
	for _, rule := range rules {
		db.MustCreateRule(rule)
	}
	return db
}

// MustCreateRule stores rule and fails the test on error. The stored copy,
// with its ID, is returned and remembered in db.Rules.
func (db *TestDB) MustCreateRule(rule model.ClassificationRule) model.ClassificationRule {
	db.t.Helper()

	if err := db.Storage.CreateRule(context.Background(), &rule); err != nil {
		db.t.Fatalf("failed to seed rule %q: %v", rule.Pattern, err)
	}
	db.Rules = append(db.Rules, rule)
	return rule
}
