package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringCol(name string) Column {
	return Column{Name: name, Label: name, DisplayType: DisplayString}
}

func TestContainsString(t *testing.T) {
	cases := []struct {
		term  string
		value any
		want  bool
	}{
		{"", nil, true},
		{"   ", "anything", true},
		{"ali", nil, false},
		{"ali", "", false},
		{"ali", "California", true},
		{"ALI", "  california ", true},
		{" ali ", "California", true},
		{"ali", "Oregon", false},
		{"12", 1234.0, true},
		{"tru", true, true},
		{"x", map[string]any{"a": "x"}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ContainsString(c.term, c.value), "term=%q value=%v", c.term, c.value)
	}
}

func TestFilterGlobalSearch(t *testing.T) {
	cols := []Column{stringCol("State")}
	ca := Record{"Id": "1", "State": "California"}
	or := Record{"Id": "2", "State": "Oregon"}

	got := Filter([]Record{ca, or}, cols, "ali")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID())
}

func TestFilterEmptyGlobalKeepsEveryRow(t *testing.T) {
	cols := []Column{stringCol("Name"), {Name: "Custom", DisplayType: "SOMETHING"}}
	rows := []Record{
		{"Id": "1", "Name": "Bravo"},
		{"Id": "2"},
		{"Id": "3", "Name": ""},
	}
	got := Filter(rows, cols, "")
	assert.Len(t, got, 3)
}

func TestFilterWithoutColumnsShowsNothing(t *testing.T) {
	rows := []Record{{"Id": "1", "Name": "Bravo"}}
	assert.Empty(t, Filter(rows, nil, ""))
}

func TestFilterColumnFiltersAreConjunctive(t *testing.T) {
	name := stringCol("Name")
	name.FilterText = "a"
	city := stringCol("City")
	city.FilterText = "ber"
	rows := []Record{
		{"Id": "1", "Name": "Anna", "City": "Berlin"},
		{"Id": "2", "Name": "Anna", "City": "Paris"},
		{"Id": "3", "Name": "Bob", "City": "Bern"},
	}
	got := Filter(rows, []Column{name, city}, "")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID())
}

func TestFilterGlobalIsDisjunctive(t *testing.T) {
	cols := []Column{stringCol("Name"), stringCol("City")}
	rows := []Record{
		{"Id": "1", "Name": "Anna", "City": "Berlin"},
		{"Id": "2", "Name": "Bob", "City": "Annecy"},
		{"Id": "3", "Name": "Carl", "City": "Paris"},
	}
	got := Filter(rows, cols, "ann")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID())
	assert.Equal(t, "2", got[1].ID())
}

func TestFilterUnknownDisplayTypeMatchesEverything(t *testing.T) {
	cols := []Column{stringCol("Name"), {Name: "Geo", DisplayType: "LOCATION"}}
	rows := []Record{{"Id": "1", "Name": "Bob"}}
	assert.Len(t, Filter(rows, cols, "zzz"), 1)
}

func TestFilterNumericBooleanDate(t *testing.T) {
	cols := []Column{
		{Name: "Amount", DisplayType: DisplayCurrency},
		{Name: "Active", DisplayType: DisplayBoolean},
		{Name: "CloseDate", DisplayType: DisplayDate},
	}
	rows := []Record{{"Id": "1", "Amount": 1500.5, "Active": false, "CloseDate": "2024-03-01"}}
	assert.Len(t, Filter(rows, cols, "500.5"), 1)
	assert.Len(t, Filter(rows, cols, "fals"), 1)
	assert.Len(t, Filter(rows, cols, "2024-03"), 1)
	assert.Empty(t, Filter(rows, cols, "2025"))
}

func TestFilterReference(t *testing.T) {
	acct := Column{Name: "AccountId", DisplayType: DisplayReference, RelatedRecordFieldName: "Account.Name", FilterText: "acm"}
	rows := []Record{
		{"Id": "1", "AccountId": "a1", "Account": map[string]any{"Name": "Acme"}},
		{"Id": "2", "AccountId": nil, "Account": nil},
		{"Id": "3"},
		{"Id": "4", "Account": map[string]any{"Id": "a4"}},
	}
	var got []Record
	require.NotPanics(t, func() { got = Filter(rows, []Column{acct}, "") })
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID())
}

func TestResolvePath(t *testing.T) {
	rec := Record{"Owner": map[string]any{"Manager": map[string]any{"Name": "Zed"}}}

	v, ok := resolvePath(rec, "Owner.Manager.Name")
	require.True(t, ok)
	assert.Equal(t, "Zed", v)

	_, ok = resolvePath(rec, "Owner.Missing.Name")
	assert.False(t, ok, "stops on the nested object")

	_, ok = resolvePath(rec, "")
	assert.False(t, ok)
}

func TestFilterIsIdempotent(t *testing.T) {
	name := stringCol("Name")
	name.FilterText = "o"
	cols := []Column{name, stringCol("City")}
	rows := []Record{
		{"Id": "1", "Name": "Bob", "City": "Oslo"},
		{"Id": "2", "Name": "Ann", "City": "Rome"},
		{"Id": "3", "Name": "Joe", "City": "Lyon"},
	}
	once := Filter(rows, cols, "o")
	twice := Filter(once, cols, "o")
	assert.Equal(t, once, twice)
}
