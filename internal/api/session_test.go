package api

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pflist/internal/catalog"
	"pflist/internal/logger"
	"pflist/internal/platform"
)

// fakeService отдаёт заранее заданные ответы; hold задерживает очередной InitList
type fakeService struct {
	mu       sync.Mutex
	resps    []*platform.FetchResponse
	err      error
	hold     chan struct{}
	started  chan struct{}
	saved    []string
	saveErr  error
	// accepted — то, что платформа вернёт в SaveResult.Record
	accepted map[string]any
}

func (f *fakeService) InitList(ctx context.Context, _ *platform.FetchRequest) (*platform.FetchResponse, error) {
	f.mu.Lock()
	hold, started := f.hold, f.started
	f.hold, f.started = nil, nil
	var resp *platform.FetchResponse
	if len(f.resps) > 0 {
		resp, f.resps = f.resps[0], f.resps[1:]
	}
	err := f.err
	f.mu.Unlock()

	if hold != nil {
		close(started)
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeService) SaveRecord(_ context.Context, req *platform.SaveRequest) (*platform.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req.Record)
	return &platform.SaveResult{Success: true, Record: f.accepted}, nil
}

func nameResponse(names ...string) *platform.FetchResponse {
	resp := &platform.FetchResponse{
		Columns: []platform.RawColumn{{Name: "Name", Label: "Name", Type: "text", DisplayType: "STRING"}},
	}
	for i, n := range names {
		resp.Records = append(resp.Records, map[string]any{"Id": string(rune('a'+i)) + "1", "Name": n})
	}
	return resp
}

func newTestRegistry(svc platform.Service) (*Registry, *Session) {
	def := catalog.ListDef{Name: "accounts", SObjectName: "Account", FieldsString: "Name", EditableFieldsString: "Name"}
	reg := NewRegistry([]catalog.ListDef{def}, svc, logger.Discard())
	s, _ := reg.Get("accounts")
	return reg, s
}

func TestFetchErrorIsKeptOnSession(t *testing.T) {
	svc := &fakeService{err: &platform.Error{Code: "UNKNOWN_EXCEPTION", Message: "boom"}}
	reg, s := newTestRegistry(svc)

	err := reg.EnsureLoaded(context.Background(), s)
	require.Error(t, err)
	snap := s.Snapshot()
	assert.False(t, snap.Loaded)
	assert.Equal(t, "UNKNOWN_EXCEPTION: boom", snap.Error)
	assert.Empty(t, snap.Records)
	assert.Nil(t, snap.QueryDateTime)

	// повторный EnsureLoaded не повторяет запрос, пока не вызван refresh
	require.NoError(t, reg.EnsureLoaded(context.Background(), s))

	svc.err = nil
	svc.resps = []*platform.FetchResponse{nameResponse("Acme")}
	require.NoError(t, reg.Fetch(context.Background(), s))
	snap = s.Snapshot()
	assert.Empty(t, snap.Error)
	assert.Len(t, snap.Records, 1)
}

func TestStaleFetchIsDropped(t *testing.T) {
	hold := make(chan struct{})
	started := make(chan struct{})
	svc := &fakeService{
		resps:   []*platform.FetchResponse{nameResponse("Old"), nameResponse("New", "Newer")},
		hold:    hold,
		started: started,
	}
	reg, s := newTestRegistry(svc)

	done := make(chan error, 1)
	go func() { done <- reg.Fetch(context.Background(), s) }()
	<-started

	// второй запрос начинается и завершается, пока первый висит
	require.NoError(t, reg.Fetch(context.Background(), s))
	close(hold)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "New", snap.Records[0]["Name"])
}

func TestSaveStopsOnFirstError(t *testing.T) {
	svc := &fakeService{resps: []*platform.FetchResponse{nameResponse("Acme", "Globex")}}
	reg, s := newTestRegistry(svc)
	require.NoError(t, reg.Fetch(context.Background(), s))

	out, err := reg.Save(context.Background(), s, []map[string]any{
		{"id": "row-0", "Name": "Acme 2"},
		{"id": "row-1", "Name": "Globex 2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1"}, out.Saved)
	assert.Len(t, svc.saved, 2)
	assert.JSONEq(t, `{"Id":"a1","Name":"Acme 2"}`, svc.saved[0])

	snap := s.Snapshot()
	assert.Equal(t, "Acme 2", snap.Records[0]["Name"])

	svc.saveErr = errors.New("connection reset")
	out, err = reg.Save(context.Background(), s, []map[string]any{{"id": "row-1", "Name": "X"}})
	require.Error(t, err)
	assert.Empty(t, out.Saved)
	assert.Equal(t, "b1", out.Failed)
	assert.Equal(t, "connection reset", s.Snapshot().Error)
}

func TestSaveFailedResultBecomesError(t *testing.T) {
	err := saveFailed(&platform.SaveResult{Errors: []platform.FieldError{{Code: platform.CodeRequired, Field: "Name", Message: "Name is required"}}})
	var pe *platform.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "SAVE_FAILED", pe.Code)
	assert.Equal(t, "Name is required", pe.Message)
	assert.ErrorIs(t, err, platform.ErrInvalid)
}

func TestPredefinedHidesListViews(t *testing.T) {
	for _, def := range []catalog.ListDef{
		{WhereClause: "Industry=Banking"},
		{ChildRelationship: "Contacts", ParentID: "a1"},
		{SelectedListViewID: "lv-1"},
	} {
		assert.True(t, newSession(def).predefined())
	}
	assert.False(t, newSession(catalog.ListDef{}).predefined())
}

func TestSavePatchesAcceptedValues(t *testing.T) {
	resp := nameResponse("Acme", "Globex")
	resp.Columns = append(resp.Columns, platform.RawColumn{Name: "ClosedAt", Label: "Closed", Type: "datetime", DisplayType: "DATETIME"})
	svc := &fakeService{
		resps:    []*platform.FetchResponse{resp},
		accepted: map[string]any{"ClosedAt": "2024-01-02T01:04:05Z"},
	}
	reg, s := newTestRegistry(svc)
	require.NoError(t, reg.Fetch(context.Background(), s))

	_, err := reg.Save(context.Background(), s, []map[string]any{{"id": "row-1", "ClosedAt": "2024-01-02T03:04:05+02:00"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":"b1","ClosedAt":"2024-01-02T03:04:05+02:00"}`, svc.saved[0])

	row := s.Snapshot().Records[1]
	assert.Equal(t, "b1", row.ID())
	assert.Equal(t, "2024-01-02T01:04:05Z", row["ClosedAt"], "row shows the stored value, not the draft")
}

func TestVersionFollowsComponentScheme(t *testing.T) {
	assert.Regexp(t, `^PerfectionList \d+(\.\d+)+`, Version)
}
