package platform

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pflist/internal/catalog"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	id, err := s.Insert(ctx, "Account", map[string]any{"Name": "Acme"})
	require.NoError(t, err)
	assert.Len(t, id, 26, "ulid")

	_, err = s.Insert(ctx, "Account", map[string]any{"Id": "fixed", "Name": "Globex"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, "Account", map[string]any{"Id": "fixed"})
	assert.ErrorIs(t, err, ErrConflict)

	recs, err := s.List(ctx, "Account")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, id, recs[0]["Id"])
	assert.Equal(t, "fixed", recs[1]["Id"])

	recs[0]["Name"] = "mutated"
	_, rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec["Name"], "List returns copies")

	require.NoError(t, s.Update(ctx, "fixed", map[string]any{"Name": nil, "Phone": "1"}))
	obj, rec, err := s.Get(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "Account", obj)
	assert.Equal(t, map[string]any{"Id": "fixed", "Phone": "1"}, rec)

	assert.ErrorIs(t, s.Update(ctx, "ghost", nil), ErrNotFound)
	_, _, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConcurrentInsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Insert(ctx, "Contact", map[string]any{"Name": "x"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	recs, err := s.List(ctx, "Contact")
	require.NoError(t, err)
	assert.Len(t, recs, 50)
}

func TestSeedIsIdempotent(t *testing.T) {
	cat := &catalog.Catalog{
		Objects: map[string]*catalog.Object{"User": {Name: "User"}},
		Seed:    map[string][]map[string]any{"User": {{"Id": "u1", "Name": "Zoe"}}},
	}
	s := NewMemoryStore()
	n, err := Seed(context.Background(), s, cat)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = Seed(context.Background(), s, cat)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCoerceValue(t *testing.T) {
	f := func(typ string, opts ...string) catalog.Field {
		fl := catalog.Field{Name: "F", Type: typ}
		if len(opts) > 0 {
			fl.Enum = opts
		}
		return fl
	}
	ok := []struct {
		field catalog.Field
		in    any
		want  any
	}{
		{f("int"), "12", 12.0},
		{f("money"), " 3.5 ", 3.5},
		{f("bool"), "yes", true},
		{f("date"), "2024-02-29", "2024-02-29"},
		{f("datetime"), "2024-01-01T10:00:00+02:00", "2024-01-01T08:00:00Z"},
		{f("enum", "A", "B"), "B", "B"},
		{f("int"), "", nil},
		{f("string"), "", ""},
	}
	for _, tc := range ok {
		got, err := coerceValue(tc.field, tc.in)
		require.NoError(t, err, "%s %v", tc.field.Type, tc.in)
		assert.Equal(t, tc.want, got, "%s %v", tc.field.Type, tc.in)
	}

	bad := []struct {
		field catalog.Field
		in    any
	}{
		{f("int"), 1.5},
		{f("float"), "abc"},
		{f("bool"), "maybe"},
		{f("date"), "2024-02-30"},
		{f("date"), "01.02.2024"},
		{f("datetime"), "2024-01-01"},
		{f("enum", "A"), "C"},
		{f("string"), 5.0},
	}
	for _, tc := range bad {
		_, err := coerceValue(tc.field, tc.in)
		assert.Error(t, err, "%s %v", tc.field.Type, tc.in)
	}
}
