package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer отдаёт Engine по тем же путям, что и /rpc/* в api
func rpcServer(t *testing.T, e *Engine) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, out any, err error) {
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			var pe *Error
			errors.As(err, &pe)
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": pe})
			return
		}
		_ = json.NewEncoder(w).Encode(out)
	}
	mux.HandleFunc("/rpc/initPFList", func(w http.ResponseWriter, r *http.Request) {
		var req FetchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out, err := e.InitList(r.Context(), &req)
		reply(w, out, err)
	})
	mux.HandleFunc("/rpc/saveRecord", func(w http.ResponseWriter, r *http.Request) {
		var req SaveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out, err := e.SaveRecord(r.Context(), &req)
		reply(w, out, err)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	srv := rpcServer(t, e)
	c := NewClient(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	resp, err := c.InitList(ctx, &FetchRequest{SObjectName: "Account", FieldsString: "Name,OwnerId", OrderByField: "Name DESC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a3", "a2", "a1"}, recordIDs(resp))
	assert.Equal(t, ListViewOptions{{ID: "lv-all", Name: "All"}, {ID: "lv-bank", Name: "Banking"}}, resp.ListViewsOptions, "option order survives the wire")

	res, err := c.SaveRecord(ctx, saveJSON(t, map[string]any{"Id": "a3", "Name": "Initrode"}))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, map[string]any{"Id": "a3", "Name": "Initrode"}, res.Record)

	_, err = c.SaveRecord(ctx, saveJSON(t, map[string]any{"Id": "a3", "Industry": "Retail"}))
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "FIELD_INTEGRITY_EXCEPTION", pe.Code)
	require.Len(t, pe.Fields, 1)
	assert.Equal(t, CodeEnumInvalid, pe.Fields[0].Code)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRemoteErrorShapes(t *testing.T) {
	cases := []struct {
		body string
		code string
		msg  string
	}{
		{`{"error":"boom"}`, "", "boom"},
		{`[{"errorCode":"INVALID_FIELD","message":"bad field"}]`, "INVALID_FIELD", "bad field"},
		{`{"message":"plain"}`, "", "plain"},
		{`<html>oops</html>`, "", "saveRecord: HTTP 500"},
	}
	for _, tc := range cases {
		err := remoteError("saveRecord", http.StatusInternalServerError, []byte(tc.body))
		var pe *Error
		require.True(t, errors.As(err, &pe), tc.body)
		assert.Equal(t, tc.code, pe.Code, tc.body)
		assert.Equal(t, tc.msg, pe.Message, tc.body)
	}

	err := remoteError("initPFList", http.StatusNotFound, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotFound)
}
