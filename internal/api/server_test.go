package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store/memstore"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/testutil"
)

const owner = "oracle.near"

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *oracle.Service) {
	t.Helper()
	svc, err := oracle.Initialize(context.Background(), memstore.New(), owner,
		oracle.WithClock(testutil.NewDeterministicClock()),
		oracle.WithLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	srv := httptest.NewServer(NewServer(svc, NewTokenValidator(testSecret), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv, svc
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	tok, err := SignToken(testSecret, subject, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func doRequest(t *testing.T, method, url, auth, body string) (int, string) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestStoreThenGet(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := doRequest(t, http.MethodPut, srv.URL+"/prophecies/test_prophecy", bearer(t, owner),
		`{"text":"The future of Web3 is bright!"}`)
	require.Equal(t, http.StatusNoContent, code)

	code, body := doRequest(t, http.MethodGet, srv.URL+"/prophecies/test_prophecy", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"text":"The future of Web3 is bright!","timestamp":1,"creator":"oracle.near"}`, body)
}

func TestStore_NonOwnerForbidden(t *testing.T) {
	srv, svc := newTestServer(t)

	code, body := doRequest(t, http.MethodPut, srv.URL+"/prophecies/x", bearer(t, "eve.near"), `{"text":"hack"}`)
	assert.Equal(t, http.StatusForbidden, code)

	var p ProblemDetail
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	assert.Equal(t, "UNAUTHORIZED", p.Code)

	_, found, err := svc.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := doRequest(t, http.MethodPut, srv.URL+"/prophecies/x", "", `{"text":"t"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestStore_BadBodies(t *testing.T) {
	srv, _ := newTestServer(t)
	auth := bearer(t, owner)

	for _, body := range []string{`not json`, `{}`, `{"text":1}`, `{"text":"a","extra":true}`} {
		code, _ := doRequest(t, http.MethodPut, srv.URL+"/prophecies/x", auth, body)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}

	code, _ := doRequest(t, http.MethodPut, srv.URL+"/prophecies/x", auth, `{"text":""}`)
	assert.Equal(t, http.StatusNoContent, code, "empty text is a valid prophecy")
}

func TestGet_AbsentIsNull(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := doRequest(t, http.MethodGet, srv.URL+"/prophecies/never", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "null\n", body)
}

func TestGet_ETagIsRecordDigest(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, svc.Store(ctx, svc.Call(owner), "p1", "hi"))

	etagOf := func(id string) string {
		resp, err := http.Get(srv.URL + "/prophecies/" + id)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return resp.Header.Get("ETag")
	}

	want, err := record.RecordDigest(record.Entry{
		ID:     "p1",
		Record: record.Record{Text: "hi", Timestamp: 1, Creator: owner},
	})
	require.NoError(t, err)
	first := etagOf("p1")
	assert.Equal(t, `"`+want+`"`, first)

	require.NoError(t, svc.Store(ctx, svc.Call(owner), "p1", "hi"))
	assert.NotEqual(t, first, etagOf("p1"), "restamped record gets a new tag")
	assert.Empty(t, etagOf("never"))
}

func TestList(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	for _, id := range []string{"A", "B", "A"} {
		require.NoError(t, svc.Store(ctx, svc.Call(owner), id, strings.ToLower(id)))
	}

	code, body := doRequest(t, http.MethodGet, srv.URL+"/prophecies?limit=5", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[
		["A", {"text":"a","timestamp":3,"creator":"oracle.near"}],
		["B", {"text":"b","timestamp":2,"creator":"oracle.near"}]
	]`, body)

	code, body = doRequest(t, http.MethodGet, srv.URL+"/prophecies?limit=0", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "[]\n", body)

	code, body = doRequest(t, http.MethodGet, srv.URL+"/prophecies", "", "")
	require.Equal(t, http.StatusOK, code)
	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	assert.Len(t, entries, 2)
}

func TestList_DefaultLimit(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()
	for i := range DefaultListLimit + 3 {
		require.NoError(t, svc.Store(ctx, svc.Call(owner), strings.Repeat("k", i+1), "t"))
	}

	_, body := doRequest(t, http.MethodGet, srv.URL+"/prophecies", "", "")
	var entries []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &entries))
	assert.Len(t, entries, DefaultListLimit)
}

func TestList_BadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, q := range []string{"-1", "abc", "1.5", "99999999999999999999999"} {
		code, _ := doRequest(t, http.MethodGet, srv.URL+"/prophecies?limit="+q, "", "")
		assert.Equal(t, http.StatusBadRequest, code, q)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	code, body := doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","owner":"oracle.near"}`, body)
}

func TestRateLimitedServer(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimiter(NewRateLimiter(0.001, 1)))

	code, _ := doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	code, _ := doRequest(t, http.MethodDelete, srv.URL+"/prophecies/x", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
