package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/cli"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/pattern"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
)

// IngestStore is the storage an Ingestor needs.
type IngestStore interface {
	RuleStore
	TransactionStore
}

// Options configures an Ingestor.
type Options struct {
	// Progress receives a progress bar for large batches. Nil disables it.
	Progress        io.Writer
	UserID          string
	ReviewThreshold float64
}

// Batch is one classification pass over a set of transactions.
type Batch struct {
	Deltas       map[int]int
	Transactions []model.Transaction
	Matched      int
}

// CommitResult reports what a commit wrote.
type CommitResult struct {
	Inserted   int
	Duplicates int
	Rules      int
}

// Ingestor classifies transactions with the rules visible to one user and
// stores the results.
type Ingestor struct {
	store IngestStore
	opts  Options
}

// NewIngestor creates an Ingestor.
func NewIngestor(store IngestStore, opts Options) *Ingestor {
	return &Ingestor{store: store, opts: opts}
}

// Engine loads the user's rules and builds a rule engine over them.
func (i *Ingestor) Engine(ctx context.Context) (*pattern.Engine, error) {
	rules, err := i.store.ListRules(ctx, i.opts.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return pattern.NewEngine(rules, pattern.Options{ReviewThreshold: i.opts.ReviewThreshold}), nil
}

// Classify runs one classification pass. txns is not modified.
func (i *Ingestor) Classify(ctx context.Context, txns []model.Transaction) (*Batch, error) {
	engine, err := i.Engine(ctx)
	if err != nil {
		return nil, err
	}

	progress := cli.NewProgress(i.opts.Progress, len(txns), "Classifying")
	classified := make([]model.Transaction, len(txns))
	var events []model.MatchEvent

	for idx, txn := range txns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := engine.Classify(txn)
		classified[idx] = engine.Apply(txn, result)
		if result.Matched() {
			events = append(events, model.MatchEvent{TransactionID: txn.ID, RuleID: *result.RuleID})
		}
		progress.Add(1)
	}
	progress.Finish()

	slog.Info("Classified transactions",
		"total", len(txns),
		"matched", len(events),
		"user", i.opts.UserID)

	return &Batch{
		Transactions: classified,
		Deltas:       pattern.Tally(events),
		Matched:      len(events),
	}, nil
}

// ClassifyPending classifies only the transactions still marked for review.
// The rest keep the category they arrived with.
func (i *Ingestor) ClassifyPending(ctx context.Context, txns []model.Transaction) (*Batch, error) {
	var (
		pending []model.Transaction
		indexes []int
	)
	for idx := range txns {
		if txns[idx].NeedsReview {
			pending = append(pending, txns[idx])
			indexes = append(indexes, idx)
		}
	}

	batch, err := i.Classify(ctx, pending)
	if err != nil {
		return nil, err
	}

	merged := make([]model.Transaction, len(txns))
	copy(merged, txns)
	for k, idx := range indexes {
		merged[idx] = batch.Transactions[k]
	}
	batch.Transactions = merged
	return batch, nil
}

// Commit stores a new batch and then bumps the match count of each rule that
// classified a newly stored transaction. Transactions already stored are
// skipped and do not count.
func (i *Ingestor) Commit(ctx context.Context, batch *Batch) (CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}
	if len(batch.Transactions) == 0 {
		return CommitResult{}, nil
	}

	inserted, err := i.store.InsertTransactions(ctx, batch.Transactions)
	if err != nil {
		return CommitResult{}, fmt.Errorf("failed to save transactions: %w", err)
	}

	deltas := insertedDeltas(inserted, batch.Deltas)
	if err := i.store.ApplyMatchCounts(ctx, deltas); err != nil {
		return CommitResult{}, fmt.Errorf("failed to record rule matches: %w", err)
	}

	return CommitResult{
		Inserted:   len(inserted),
		Duplicates: len(batch.Transactions) - len(inserted),
		Rules:      len(deltas),
	}, nil
}

// insertedDeltas tallies rule matches over the inserted rows, limited to the
// rules this batch's classification pass matched.
func insertedDeltas(inserted []model.Transaction, batchDeltas map[int]int) map[int]int {
	var events []model.MatchEvent
	for _, txn := range inserted {
		if txn.RuleID == nil {
			continue
		}
		if _, ok := batchDeltas[*txn.RuleID]; !ok {
			continue
		}
		events = append(events, model.MatchEvent{TransactionID: txn.ID, RuleID: *txn.RuleID})
	}
	return pattern.Tally(events)
}

// Reclassify re-runs the rules over stored transactions selected by filter and
// writes the new classifications back.
func (i *Ingestor) Reclassify(ctx context.Context, filter storage.TransactionFilter) (*Batch, error) {
	stored, err := i.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(stored) == 0 {
		return &Batch{Transactions: stored, Deltas: map[int]int{}}, nil
	}

	batch, err := i.Classify(ctx, stored)
	if err != nil {
		return nil, err
	}

	if err := i.store.UpdateClassifications(ctx, batch.Transactions); err != nil {
		return nil, fmt.Errorf("failed to update classifications: %w", err)
	}
	if err := i.store.ApplyMatchCounts(ctx, batch.Deltas); err != nil {
		return nil, fmt.Errorf("failed to record rule matches: %w", err)
	}
	return batch, nil
}
