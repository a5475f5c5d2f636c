// Package service wires the parsers, the rule engine and storage into the
// ingest workflows used by the command line.
package service

import (
	"context"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
)

// Ensure the SQLite store satisfies Storage.
var _ Storage = (*storage.SQLiteStorage)(nil)

// RuleStore loads rules and records how often they matched.
type RuleStore interface {
	ListRules(ctx context.Context, userID string) ([]model.ClassificationRule, error)
	ApplyMatchCounts(ctx context.Context, deltas map[int]int) error
}

// TransactionStore persists classified transactions.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	InsertTransactions(ctx context.Context, transactions []model.Transaction) ([]model.Transaction, error)
	UpdateClassifications(ctx context.Context, transactions []model.Transaction) error
	ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]model.Transaction, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	RuleStore
	TransactionStore

	// Rule management
	CreateRule(ctx context.Context, rule *model.ClassificationRule) error
	GetRule(ctx context.Context, id int) (*model.ClassificationRule, error)
	ListAllRules(ctx context.Context) ([]model.ClassificationRule, error)
	UpdateRule(ctx context.Context, rule *model.ClassificationRule) error
	DeleteRule(ctx context.Context, id int) error

	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
