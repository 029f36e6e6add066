package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

func conf(event, location, country, year string, start *time.Time) model.Conference {
	return model.Conference{
		Key:       model.Key(event, start, location),
		Event:     event,
		Location:  location,
		Country:   country,
		StartDate: start,
		Year:      year,
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func fixtureTable() model.Table {
	return model.Table{
		conf("EuroConf", "Paris", "France", "2024", date(2024, time.May, 1)),
		conf("EuroConf2", "Paris", "France", "2024", date(2024, time.May, 1)),
		conf("Asia Health Summit", "Singapore", "Singapore", "2024", date(2024, time.September, 12)),
		conf("Nordic Medical Days", "Oslo", "Norway", "2025", nil),
	}
}

func TestSearchEmptyQueryReturnsEveryKey(t *testing.T) {
	table := fixtureTable()
	for _, threshold := range []int{0, 60, 100} {
		got := Search("", table, model.SearchFields, threshold)
		assert.Len(t, got, len(table), "threshold %d", threshold)
		for _, k := range table.Keys() {
			assert.Contains(t, got, k)
		}
	}
}

func TestSearchPartialFragmentScenario(t *testing.T) {
	table := fixtureTable()
	keyA := table[0].Key
	keyB := table[1].Key

	got := Search("euroconf", table, []model.Field{model.FieldEvent}, 70)
	assert.Contains(t, got, keyA)
	assert.Contains(t, got, keyB, `"euroconf" is a fuzzy fragment of "EuroConf2"`)

	// Partial ratio finds "euroconf" as a perfect fragment inside
	// "euroconf2", so both rows still score 100 at threshold 95.
	got = Search("euroconf", table, []model.Field{model.FieldEvent}, 95)
	assert.Contains(t, got, keyA)
	assert.Contains(t, got, keyB)

	assert.NotContains(t, got, table[2].Key)
	assert.NotContains(t, got, table[3].Key)
}

func TestSearchCaseInsensitive(t *testing.T) {
	table := fixtureTable()
	got := Search("EUROCONF", table, []model.Field{model.FieldEvent}, 95)
	assert.Contains(t, got, table[0].Key)
}

func TestSearchThresholdMonotonic(t *testing.T) {
	table := fixtureTable()
	strict := Search("euro", table, model.SearchFields, 100)
	loose := Search("euro", table, model.SearchFields, 60)
	loosest := Search("euro", table, model.SearchFields, 20)

	for k := range strict {
		assert.Contains(t, loose, k, "threshold 100 results must survive at 60")
	}
	for k := range loose {
		assert.Contains(t, loosest, k, "threshold 60 results must survive at 20")
	}
}

func TestSearchMatchesAnyField(t *testing.T) {
	table := fixtureTable()
	// "oslo" matches Nordic Medical Days only through its location.
	got := Search("oslo", table, model.SearchFields, 90)
	require.Contains(t, got, table[3].Key)
	assert.NotContains(t, got, table[0].Key)
}

func TestSearchSkipsAbsentValues(t *testing.T) {
	noLocation := model.Conference{
		Key:   model.Key("Mystery Meeting", nil, ""),
		Event: "Mystery Meeting",
		Year:  "2024",
	}
	table := model.Table{noLocation}

	got := Search("paris", table, []model.Field{model.FieldLocation}, 0)
	assert.Empty(t, got, "an absent value never matches, even at threshold 0")
}

func TestSearchDeterministic(t *testing.T) {
	table := fixtureTable()
	first := Search("conf", table, model.SearchFields, 70)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Search("conf", table, model.SearchFields, 70))
	}
}
