package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	source, err := NewFileRepository("testdata", "tax").LoadAll(ctx)
	require.NoError(t, err)
	for _, rs := range source {
		_, err := store.Save(ctx, "tax", rs)
		require.NoError(t, err)
	}

	loaded, err := store.Repository("tax").LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	for i := range source {
		assert.True(t, source[i].EffectiveStart.Equal(loaded[i].EffectiveStart))
		assert.Equal(t, source[i].Label, loaded[i].Label)
		require.Len(t, loaded[i].Brackets, len(source[i].Brackets))
		for j, b := range source[i].Brackets {
			got := loaded[i].Brackets[j]
			assert.True(t, b.RangeStart.Equal(got.RangeStart), "bracket %d start", j)
			assert.True(t, b.FixedAmount.Equal(got.FixedAmount), "bracket %d fixed", j)
			assert.True(t, b.PercentageRate.Equal(got.PercentageRate), "bracket %d rate", j)
			assert.Equal(t, b.IsOpenEnded(), got.IsOpenEnded(), "bracket %d open-ended", j)
		}
	}

	empty, err := store.Repository("sss").LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_PartsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	source, err := NewFileRepository("testdata", "sss").LoadAll(ctx)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceFamily(ctx, "sss", source))

	rs, err := store.Repository("sss").LoadOne(ctx, domain.NewDate(2025, time.January, 1))
	require.NoError(t, err)
	require.Len(t, rs.Brackets, 3)
	assert.True(t, rs.Brackets[2].Parts["mpf_ee"].Equal(source[0].Brackets[2].Parts["mpf_ee"]))
}

func TestSQLiteStore_DuplicateDateLastImportedWins(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Save(ctx, "tax", ruleSet(2020, "first import"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "tax", ruleSet(2020, "second import"))
	require.NoError(t, err)

	rs, err := store.Repository("tax").LoadOne(ctx, domain.NewDate(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "second import", rs.Label)

	all, err := store.Repository("tax").LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first import", all[0].Label, "load order is import order")
}

func TestSQLiteStore_ReplaceFamily(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.ReplaceFamily(ctx, "tax", []domain.RuleSet{ruleSet(2020, "old")}))
	require.NoError(t, store.ReplaceFamily(ctx, "tax", []domain.RuleSet{ruleSet(2021, "new a"), ruleSet(2022, "new b")}))
	_, err := store.Save(ctx, "sss", ruleSet(2020, "other family"))
	require.NoError(t, err)

	all, err := store.Repository("tax").LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new a", all[0].Label)

	families, err := store.Families(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sss", "tax"}, families)
}

func TestSQLiteStore_RejectsInvalidRuleSet(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Save(context.Background(), "tax", domain.RuleSet{EffectiveStart: domain.NewDate(2020, time.January, 1)})
	assert.ErrorContains(t, err, "no brackets")
}

func TestSQLiteStore_LoadOneMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Repository("tax").LoadOne(context.Background(), domain.NewDate(2020, time.January, 1))
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestSQLiteStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Repository("tax").LoadAll(context.Background())
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}
