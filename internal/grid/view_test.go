package grid

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pflist/internal/platform"
)

func loadedView(t *testing.T) *View {
	t.Helper()
	v := NewView()
	res := Normalize(decodeFetch(t), "Account", ParseEditableFields("Name", false))
	require.True(t, v.Apply(v.BeginFetch(), res, time.Unix(1700000000, 0)))
	return v
}

func activeSortColumns(cols []Column) []string {
	var out []string
	for _, c := range cols {
		if c.SortIconState {
			out = append(out, c.Name)
		}
	}
	return out
}

func TestViewApplyCounts(t *testing.T) {
	v := loadedView(t)
	st := v.State()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Showing)
	assert.Len(t, v.Displayed(), 2)
	assert.True(t, v.Loaded())
	assert.Equal(t, time.Unix(1700000000, 0), v.QueriedAt())
}

func TestViewSearchAndColumnFilter(t *testing.T) {
	v := loadedView(t)

	v.Search("glob")
	assert.Equal(t, 1, v.State().Showing)
	assert.Equal(t, 2, v.State().Total)

	v.Search("")
	require.NoError(t, v.SetColumnFilter("Industry", "bank"))
	assert.Equal(t, []string{"001A"}, ids(v.Displayed()))

	cols := v.Columns()
	assert.Equal(t, "blue", cols[1].Class)
	assert.Equal(t, "", cols[0].Class)

	assert.ErrorIs(t, v.SetColumnFilter("Nope", "x"), ErrUnknownColumn)
}

func TestViewColumnFilterIsCopyOnWrite(t *testing.T) {
	v := loadedView(t)
	before := v.Columns()
	require.NoError(t, v.SetColumnFilter("Name", "ac"))
	assert.Equal(t, "", before[0].FilterText)
	assert.Equal(t, "ac", v.Columns()[0].FilterText)
}

func TestViewToggleSortLaw(t *testing.T) {
	v := loadedView(t)

	dir, err := v.ToggleSort("Name")
	require.NoError(t, err)
	assert.Equal(t, Asc, dir)
	assert.Equal(t, []string{"Name"}, activeSortColumns(v.Columns()))
	assert.Equal(t, IconSortAsc, v.Columns()[0].SortIconName)
	assert.Equal(t, []string{"001A", "001B"}, ids(v.Displayed()))

	dir, _ = v.ToggleSort("Name")
	assert.Equal(t, Desc, dir)
	assert.Equal(t, IconSortDesc, v.Columns()[0].SortIconName)
	assert.Equal(t, []string{"001B", "001A"}, ids(v.Displayed()))

	dir, _ = v.ToggleSort("Name")
	assert.Equal(t, Asc, dir)

	dir, _ = v.ToggleSort("Industry")
	assert.Equal(t, Asc, dir)
	assert.Equal(t, []string{"Industry"}, activeSortColumns(v.Columns()))

	_, err = v.ToggleSort("Missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestViewSortKeepsFilter(t *testing.T) {
	v := loadedView(t)
	v.Search("a")
	require.NoError(t, v.SortBy("Name", Desc))
	assert.Equal(t, v.State().Showing, len(v.Displayed()))
	for _, r := range v.Displayed() {
		assert.Contains(t, v.Rows(), r)
	}
}

func TestViewStaleFetchIsDropped(t *testing.T) {
	v := NewView()
	stale := v.BeginFetch()
	fresh := v.BeginFetch()

	res := Normalize(decodeFetch(t), "Account", ParseEditableFields("", false))
	assert.False(t, v.Apply(stale, res, time.Now()))
	assert.False(t, v.Loaded())
	assert.False(t, v.Fail(stale, errors.New("late")))
	assert.NoError(t, v.Err())

	assert.True(t, v.Apply(fresh, res, time.Now()))
	assert.True(t, v.Loaded())
}

func TestViewRefreshCarriesState(t *testing.T) {
	v := loadedView(t)
	v.Search("a")
	require.NoError(t, v.SetColumnFilter("Name", "ac"))
	require.NoError(t, v.SortBy("Name", Desc))

	res := Normalize(decodeFetch(t), "Account", ParseEditableFields("", false))
	require.True(t, v.Apply(v.BeginFetch(), res, time.Now()))

	assert.Equal(t, "a", v.State().GlobalFilterText)
	assert.Equal(t, "ac", v.Columns()[0].FilterText)
	assert.Equal(t, "blue", v.Columns()[0].Class, "carried filter keeps its highlight")
	assert.Equal(t, []string{"Name"}, activeSortColumns(v.Columns()))
	assert.Equal(t, []string{"001A"}, ids(v.Displayed()))
	assert.Equal(t, 2, v.State().Total)
}

func TestViewPrepareAndApplySaved(t *testing.T) {
	v := loadedView(t)
	v.Search("glob")

	rec, err := v.PrepareSave(map[string]any{"id": "row-0", "Name": "Initech"})
	require.NoError(t, err)
	assert.Equal(t, "001B", rec["Id"])

	before := v.Rows()[1]
	require.True(t, v.ApplySaved(rec))
	assert.Equal(t, "Globex", before["Name"], "previous row object is not mutated")
	assert.Empty(t, v.Displayed(), "patched row no longer matches the search")

	v.Search("")
	assert.Equal(t, "Initech", v.Rows()[1]["Name"])
	assert.False(t, v.ApplySaved(map[string]any{"Id": "nope"}))
}

func TestViewApplySavedCoercesByColumnType(t *testing.T) {
	v := NewView()
	res := Normalize(&platform.FetchResponse{
		Columns: []platform.RawColumn{
			{Name: "Amount", Label: "Amount", Type: "currency", DisplayType: DisplayCurrency},
			{Name: "IsWon", Label: "Won", Type: "boolean", DisplayType: DisplayBoolean},
		},
		Records: []map[string]any{
			{"Id": "a", "Amount": 20.0},
			{"Id": "b", "Amount": 50.0},
			{"Id": "c", "Amount": 5.0},
		},
	}, "Opportunity", ParseEditableFields("Amount,IsWon", false))
	require.True(t, v.Apply(v.BeginFetch(), res, time.Now()))
	require.NoError(t, v.SortBy("Amount", Asc))
	require.Equal(t, []string{"c", "a", "b"}, ids(v.Displayed()))

	require.True(t, v.ApplySaved(map[string]any{"Id": "c", "Amount": "100", "IsWon": "true"}))
	assert.Equal(t, []string{"a", "b", "c"}, ids(v.Displayed()))
	assert.Equal(t, 100.0, v.Rows()[2]["Amount"])
	assert.Equal(t, true, v.Rows()[2]["IsWon"])

	require.True(t, v.ApplySaved(map[string]any{"Id": "a", "Amount": ""}))
	assert.Nil(t, v.Rows()[2]["Amount"], "blank number becomes a blank cell")
	assert.Equal(t, []string{"b", "c", "a"}, ids(v.Displayed()), "blank sorts last")
}

func TestViewToggleFilters(t *testing.T) {
	v := NewView()
	assert.True(t, v.ToggleFilters())
	assert.False(t, v.ToggleFilters())
}
