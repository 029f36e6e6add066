package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// assertSubsequence checks that got preserves table's relative order.
func assertSubsequence(t *testing.T, table, got model.Table) {
	t.Helper()
	i := 0
	for _, c := range table {
		if i < len(got) && got[i].Key == c.Key {
			i++
		}
	}
	assert.Equal(t, len(got), i, "filter output must be a subsequence of the input table")
}

func TestFilterNoOpWithAllSentinels(t *testing.T) {
	table := fixtureTable()
	for _, q := range []Query{
		{Country: All, Year: All},
		{},
		{Text: "", Threshold: 80, Country: "", Year: ""},
	} {
		got := Filter(table, q)
		require.Len(t, got, len(table))
		assertSubsequence(t, table, got)
	}
}

func TestFilterCountryExactMatch(t *testing.T) {
	table := fixtureTable()

	got := Filter(table, Query{Country: "France"})
	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, "France", c.Country)
	}

	// Case-sensitive: "france" matches nothing.
	assert.Empty(t, Filter(table, Query{Country: "france"}))
}

func TestFilterYearExactMatch(t *testing.T) {
	table := fixtureTable()
	got := Filter(table, Query{Year: "2025"})
	require.Len(t, got, 1)
	assert.Equal(t, "Nordic Medical Days", got[0].Event)
}

func TestFilterStepsComposeByIntersection(t *testing.T) {
	table := fixtureTable()

	got := Filter(table, Query{Text: "euroconf", Threshold: 80, Country: "France", Year: "2024"})
	require.Len(t, got, 2)
	assertSubsequence(t, table, got)

	// Same text, wrong year: empty intersection.
	assert.Empty(t, Filter(table, Query{Text: "euroconf", Threshold: 80, Country: "France", Year: "2025"}))
}

func TestFilterPreservesOrder(t *testing.T) {
	table := fixtureTable()
	got := Filter(table, Query{Text: "o", Threshold: 50})
	assertSubsequence(t, table, got)
}

func TestFilterFreshTableSameKeys(t *testing.T) {
	// A reload produces a structurally new table; the same filter over
	// equal data must select the same keys.
	build := func() model.Table {
		start := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
		return model.Table{
			conf("EuroConf", "Paris", "France", "2024", &start),
		}
	}
	a := Filter(build(), Query{Text: "euroconf", Threshold: 80})
	b := Filter(build(), Query{Text: "euroconf", Threshold: 80})
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Key, b[0].Key)
}
