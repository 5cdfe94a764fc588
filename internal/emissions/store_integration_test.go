package emissions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bogoseo/bogoseo/internal/emissions"
	"github.com/bogoseo/bogoseo/internal/log"
	"github.com/bogoseo/bogoseo/internal/testutil"
)

func TestEmissionsStoreSummaryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	tdb, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := emissions.NewStore(tdb.Pool, log.NewNop())

	records := []emissions.Record{
		{Year: 2020, Sector: "에너지", Source: "발전", Amount: 250000},
		{Year: 2020, Sector: "수송", Source: "도로", Amount: 90000},
		{Year: 2021, Sector: "에너지", Source: "발전", Amount: 240000},
		{Year: 2021, Sector: "수송", Source: "도로", Amount: 95000},
	}
	require.NoError(t, store.Insert(ctx, records))

	t.Run("unfiltered", func(t *testing.T) {
		sum, err := store.Summary(ctx, emissions.Filter{})
		require.NoError(t, err)
		require.False(t, sum.Empty())

		assert.Equal(t, int64(4), sum.Count)
		assert.InDelta(t, 675000, sum.Total, 0.01)
		assert.Equal(t, 2020, sum.FirstYear)
		assert.Equal(t, 2021, sum.LastYear)
		assert.Equal(t, "에너지", sum.TopSector)
		require.Len(t, sum.ByYear, 2)
		assert.Equal(t, 2020, sum.ByYear[0].Year)
	})

	t.Run("keyword and year filter", func(t *testing.T) {
		sum, err := store.Summary(ctx, emissions.Filter{Keyword: "수송", FromYear: 2021, ToYear: 2021})
		require.NoError(t, err)
		require.False(t, sum.Empty())

		assert.Equal(t, int64(1), sum.Count)
		assert.InDelta(t, 95000, sum.Total, 0.01)
		assert.Contains(t, sum.String(), "ktCO2eq")
	})

	t.Run("no matches", func(t *testing.T) {
		sum, err := store.Summary(ctx, emissions.Filter{Keyword: "농업"})
		require.NoError(t, err)
		assert.True(t, sum.Empty())
		assert.Equal(t, "", sum.String())
	})
}
