package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestKeyIsPureFunctionOfNameDateLocation(t *testing.T) {
	k1 := Key("EuroConf", date(2024, time.May, 1), "Paris")
	k2 := Key("EuroConf", date(2024, time.May, 1), "Paris")
	assert.Equal(t, k1, k2)
	assert.Equal(t, "EuroConf|2024-05-01|Paris", k1)

	// Other fields never influence the key.
	n := 42
	a := Conference{Event: "EuroConf", StartDate: date(2024, time.May, 1), Location: "Paris", Country: "France", Abstracts: &n}
	b := Conference{Event: "EuroConf", StartDate: date(2024, time.May, 1), Location: "Paris", Year: "2025"}
	assert.Equal(t,
		Key(a.Event, a.StartDate, a.Location),
		Key(b.Event, b.StartDate, b.Location))
}

func TestKeyUnknownStartDate(t *testing.T) {
	assert.Equal(t, "EuroConf||Paris", Key("EuroConf", nil, "Paris"))
}

func TestKeyDistinguishesRecords(t *testing.T) {
	base := Key("EuroConf", date(2024, time.May, 1), "Paris")
	assert.NotEqual(t, base, Key("EuroConf2", date(2024, time.May, 1), "Paris"))
	assert.NotEqual(t, base, Key("EuroConf", date(2024, time.May, 2), "Paris"))
	assert.NotEqual(t, base, Key("EuroConf", date(2024, time.May, 1), "Lyon"))
}

func TestFieldValueAbsentFields(t *testing.T) {
	c := Conference{Event: "EuroConf", Location: "Paris", Year: "2024"}

	for _, f := range []Field{FieldCountry, FieldStartDate, FieldEndDate, FieldAbstracts} {
		_, ok := c.FieldValue(f)
		assert.False(t, ok, "field %q should be absent", f)
	}

	v, ok := c.FieldValue(FieldEvent)
	require.True(t, ok)
	assert.Equal(t, "EuroConf", v)
}

func TestFieldValueFormatting(t *testing.T) {
	n := 120
	c := Conference{
		Event:     "EuroConf",
		StartDate: date(2024, time.May, 1),
		Abstracts: &n,
	}

	v, ok := c.FieldValue(FieldStartDate)
	require.True(t, ok)
	assert.Equal(t, "2024-05-01", v)

	v, ok = c.FieldValue(FieldAbstracts)
	require.True(t, ok)
	assert.Equal(t, "120", v)
}

func TestTableCountriesSortedDistinct(t *testing.T) {
	table := Table{
		{Event: "A", Country: "Germany"},
		{Event: "B", Country: "France"},
		{Event: "C", Country: "Germany"},
		{Event: "D"}, // unknown country stays out of the dropdown
	}
	assert.Equal(t, []string{"France", "Germany"}, table.Countries())
}

func TestTableYearsNewestFirst(t *testing.T) {
	table := Table{
		{Event: "A", Year: "2024"},
		{Event: "B", Year: "2025"},
		{Event: "C", Year: "2024"},
	}
	assert.Equal(t, []string{"2025", "2024"}, table.Years())
}
