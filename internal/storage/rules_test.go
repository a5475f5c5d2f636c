package storage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/common"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/storage"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleCRUD(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	rule := model.ClassificationRule{
		Name:     "Fuel",
		Pattern:  "chevron",
		Category: "Car and Truck Expenses",
		IsActive: true,
	}
	require.NoError(t, db.Storage.CreateRule(ctx, &rule))
	assert.NotZero(t, rule.ID)
	assert.Equal(t, model.PatternContains, rule.PatternType, "defaults applied")
	assert.Equal(t, model.DirectionAny, rule.Direction)
	assert.Equal(t, model.ScopeGlobal, rule.Scope)

	got, err := db.Storage.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "chevron", got.Pattern)
	assert.Equal(t, "Car and Truck Expenses", got.Category)
	assert.True(t, got.IsActive)
	assert.False(t, got.CreatedAt.IsZero())

	got.Pattern = "shell"
	got.Direction = model.DirectionNegative
	got.HighTrust = true
	require.NoError(t, db.Storage.UpdateRule(ctx, got))

	updated, err := db.Storage.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "shell", updated.Pattern)
	assert.Equal(t, model.DirectionNegative, updated.Direction)
	assert.True(t, updated.HighTrust)

	require.NoError(t, db.Storage.DeleteRule(ctx, rule.ID))
	_, err = db.Storage.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, db.Storage.DeleteRule(ctx, rule.ID), common.ErrNotFound)
}

func TestCreateRuleValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	tests := []struct {
		name string
		rule model.ClassificationRule
	}{
		{name: "missing pattern", rule: model.ClassificationRule{Category: "Fuel"}},
		{name: "missing category", rule: model.ClassificationRule{Pattern: "chevron"}},
		{name: "user rule without owner", rule: model.ClassificationRule{Pattern: "x", Category: "y", Scope: model.ScopeUser}},
		{name: "bad pattern type", rule: model.ClassificationRule{Pattern: "x", Category: "y", PatternType: "fuzzy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			err := db.Storage.CreateRule(ctx, &rule)
			assert.ErrorIs(t, err, storage.ErrInvalidRule)
		})
	}

	assert.ErrorIs(t, db.Storage.CreateRule(ctx, nil), storage.ErrNilParameter)
}

func TestUpdateMissingRule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rule := testutil.NewRule("chevron", "Fuel").Build()
	rule.ID = 999

	err := db.Storage.UpdateRule(context.Background(), &rule)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListRulesOrderAndVisibility(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t,
		testutil.NewRule("amazon", "Shopping").Priority(10).Build(),
		testutil.NewRule("amazon", "Office Supplies").Priority(1).Build(),
		testutil.NewRule("amazon", "Inventory").OwnedBy("alice").Priority(50).Build(),
		testutil.NewRule("amazon", "Gifts").OwnedBy("bob").Build(),
		testutil.NewRule("amazon", "Supplies").Priority(1).Build(),
	)

	categories := func(rules []model.ClassificationRule) []string {
		out := make([]string, len(rules))
		for i, r := range rules {
			out[i] = r.Category
		}
		return out
	}

	alice, err := db.Storage.ListRules(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Inventory", "Office Supplies", "Supplies", "Shopping"}, categories(alice))

	global, err := db.Storage.ListRules(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Office Supplies", "Supplies", "Shopping"}, categories(global))

	all, err := db.Storage.ListAllRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, model.ScopeUser, all[0].Scope)
	assert.Equal(t, model.ScopeUser, all[1].Scope)
}

func TestApplyMatchCounts(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t,
		testutil.NewRule("chevron", "Fuel").Build(),
		testutil.NewRule("publix", "Meals").Build(),
	)
	fuel, meals := db.Rules[0], db.Rules[1]

	require.NoError(t, db.Storage.ApplyMatchCounts(ctx, map[int]int{fuel.ID: 3, meals.ID: 1}))
	require.NoError(t, db.Storage.ApplyMatchCounts(ctx, map[int]int{fuel.ID: 2}))
	require.NoError(t, db.Storage.ApplyMatchCounts(ctx, nil))

	got, err := db.Storage.GetRule(ctx, fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MatchCount)

	got, err = db.Storage.GetRule(ctx, meals.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MatchCount)
}

func TestApplyMatchCountsSkipsDeletedRules(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewRule("chevron", "Fuel").Build())
	fuel := db.Rules[0]

	require.NoError(t, db.Storage.ApplyMatchCounts(ctx, map[int]int{fuel.ID: 1, 12345: 4}))

	got, err := db.Storage.GetRule(ctx, fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MatchCount)
}

func TestApplyMatchCountsConcurrentPasses(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewRule("chevron", "Fuel").Build())
	fuel := db.Rules[0]

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, db.Storage.ApplyMatchCounts(ctx, map[int]int{fuel.ID: 2}))
		}()
	}
	wg.Wait()

	got, err := db.Storage.GetRule(ctx, fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.MatchCount)
}

func TestUpdateRuleKeepsMatchCount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t, testutil.NewRule("chevron", "Fuel").Build())
	fuel := db.Rules[0]
	require.NoError(t, db.Storage.ApplyMatchCounts(ctx, map[int]int{fuel.ID: 7}))

	fuel.Category = "Fuel and Oil"
	fuel.MatchCount = 0
	require.NoError(t, db.Storage.UpdateRule(ctx, &fuel))

	got, err := db.Storage.GetRule(ctx, fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fuel and Oil", got.Category)
	assert.Equal(t, 7, got.MatchCount)
}
