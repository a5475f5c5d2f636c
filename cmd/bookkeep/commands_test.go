package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/config"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStatement = `January 1, 2024 through January 31, 2024

DEPOSITS AND ADDITIONS
DATE DESCRIPTION AMOUNT
01/15Deposit 1234567 $500.00
Total Deposits and Additions$500.00

ATM & DEBIT CARD WITHDRAWALS
DATE DESCRIPTION AMOUNT
01/02Card Purchase 12/29 Chevron 0202648 Plantation FL Card 1819$38.80
Total ATM & Debit Card Withdrawals $38.80
`

// setupTestConfig points the global viper at a fresh database and returns its path.
func setupTestConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	dbPath := filepath.Join(t.TempDir(), "bookkeep.db")
	viper.Set("database.path", dbPath)
	t.Cleanup(viper.Reset)
	return dbPath
}

func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func openStore(t *testing.T, path string) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRulesLifecycle(t *testing.T) {
	dbPath := setupTestConfig(t)

	out, err := runCommand(t, rulesCmd(), "", "create", "--pattern", "chevron", "--category", "Fuel", "--direction", "negative")
	require.NoError(t, err)
	assert.Contains(t, out, "Created rule 1")

	out, err = runCommand(t, rulesCmd(), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "chevron")
	assert.Contains(t, out, "Fuel")

	_, err = runCommand(t, rulesCmd(), "", "edit", "1", "--category", "Car and Truck Expenses")
	require.NoError(t, err)

	out, err = runCommand(t, rulesCmd(), "", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Car and Truck Expenses")

	// Declining the prompt keeps the rule.
	out, err = runCommand(t, rulesCmd(), "n\n", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "(y/N)")
	_, err = openStore(t, dbPath).GetRule(context.Background(), 1)
	require.NoError(t, err)

	_, err = runCommand(t, rulesCmd(), "", "delete", "1", "--force")
	require.NoError(t, err)

	_, err = runCommand(t, rulesCmd(), "", "show", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1 not found")
}

func TestRulesCreateRejectsBadRegex(t *testing.T) {
	setupTestConfig(t)

	_, err := runCommand(t, rulesCmd(), "", "create", "--pattern", "([", "--type", "regex", "--category", "Fuel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not compile")
}

func TestRulesImportAndTest(t *testing.T) {
	setupTestConfig(t)

	file := writeFile(t, "rules.yaml", `
rules:
  - pattern: chevron
    category: Fuel
  - pattern: chevron
    category: Meals
    priority: 10
`)
	out, err := runCommand(t, rulesCmd(), "", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 rule(s)")

	out, err = runCommand(t, rulesCmd(), "", "test", "CHEVRON 0042 MIAMI FL", "--amount", "45.10")
	require.NoError(t, err)
	assert.Contains(t, out, "Classified as Fuel")
	assert.Contains(t, out, "Meals")

	out, err = runCommand(t, rulesCmd(), "", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "category: Meals")
}

func TestParseSaveThenList(t *testing.T) {
	dbPath := setupTestConfig(t)
	_, err := runCommand(t, rulesCmd(), "", "create", "--pattern", "chevron", "--category", "Fuel")
	require.NoError(t, err)

	statementFile := writeFile(t, "statement.txt", testStatement)
	out, err := runCommand(t, parseCmd(), "", statementFile, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Fuel")

	// A second import of the same statement stores nothing new.
	_, err = runCommand(t, parseCmd(), "", statementFile, "--save")
	require.NoError(t, err)

	store := openStore(t, dbPath)
	txns, err := store.ListTransactions(context.Background(), storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	// Only the first import classified a stored row.
	rule, err := store.GetRule(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rule.MatchCount)

	out, err = runCommand(t, transactionsCmd(), "", "list", "--category", "Fuel", "--format", "json")
	require.NoError(t, err)
	var listed []model.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "38.80", listed[0].Amount.StringFixed(2))
	assert.Equal(t, model.KindExpense, listed[0].Kind)
}

func TestParseOFXOutput(t *testing.T) {
	setupTestConfig(t)

	out, err := runCommand(t, parseCmd(), "", writeFile(t, "statement.txt", testStatement), "--format", "ofx", "--account-id", "6789")
	require.NoError(t, err)
	assert.Contains(t, out, "OFXHEADER:100")
	assert.Contains(t, out, "6789")
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	setupTestConfig(t)

	_, err := runCommand(t, parseCmd(), "", writeFile(t, "statement.txt", testStatement), "--format", "csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestPasteJSON(t *testing.T) {
	setupTestConfig(t)

	file := writeFile(t, "receipts.txt", "45.10 01/15/2024 Chevron\nnot a receipt\n")
	out, err := runCommand(t, pasteCmd(), "", file, "--format", "json", "--category", "Supplies")
	require.NoError(t, err)

	var decoded struct {
		Entries []model.BulkPasteEntry `json:"entries"`
		Errors  []struct {
			LineNumber int `json:"line_number"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "Supplies", decoded.Entries[0].Category)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, 2, decoded.Errors[0].LineNumber)
}

func TestTransactionsClassify(t *testing.T) {
	dbPath := setupTestConfig(t)

	file := writeFile(t, "receipts.txt", "45.10 01/15/2024 Chevron\n12.00 01/16/2024 Publix\n")
	_, err := runCommand(t, pasteCmd(), "", file, "--save")
	require.NoError(t, err)

	_, err = runCommand(t, rulesCmd(), "", "create", "--pattern", "publix", "--category", "Meals")
	require.NoError(t, err)

	out, err := runCommand(t, transactionsCmd(), "", "classify", "--review")
	require.NoError(t, err)
	assert.Contains(t, out, "Classified 2 transaction(s): 1 matched a rule, 1 need review")

	review := true
	pending, err := openStore(t, dbPath).ListTransactions(context.Background(), storage.TransactionFilter{NeedsReview: &review})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Chevron", pending[0].Payee)
}

func TestFilterFromFlagsValidates(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "bad section", args: []string{"--section", "savings"}, wantErr: "invalid section"},
		{name: "bad date", args: []string{"--from", "01/02/2024"}, wantErr: "invalid --from date"},
		{name: "negative limit", args: []string{"--limit", "-1"}, wantErr: "invalid limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			addFilterFlags(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			_, err := filterFromFlags(cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cmd := &cobra.Command{}
	addFilterFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--review", "--from", "2024-01-01", "--section", "card"}))
	filter, err := filterFromFlags(cmd)
	require.NoError(t, err)
	require.NotNil(t, filter.NeedsReview)
	assert.True(t, *filter.NeedsReview)
	assert.Equal(t, "2024-01-01", filter.From)
	assert.Equal(t, model.SectionCard, filter.Section)
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	require.Error(t, err)
}

func TestRulesSeed(t *testing.T) {
	setupTestConfig(t)

	out, err := runCommand(t, rulesCmd(), "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed")

	out, err = runCommand(t, rulesCmd(), "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed 0 default rule(s)")
}
