package audit_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrymomot/twofactor/pkg/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transportFunc satisfies opensearchapi.Transport.
type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Perform(r *http.Request) (*http.Response, error) { return f(r) }

func reply(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenSearchStorage_Store(t *testing.T) {
	t.Parallel()
	var (
		gotPath string
		gotDoc  audit.Event
	)
	s := audit.NewOpenSearchStorage(transportFunc(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDoc))
		return reply(http.StatusCreated, `{"result":"created"}`), nil
	}), "")

	event := audit.Event{ID: "evt-1", UserID: "u", Action: "two_factor.verified", Result: audit.ResultSuccess, CreatedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, s.Store(context.Background(), event))

	assert.Equal(t, "/twofactor-audit/_doc/evt-1", gotPath)
	assert.Equal(t, event, gotDoc)
}

func TestOpenSearchStorage_StoreError(t *testing.T) {
	t.Parallel()
	s := audit.NewOpenSearchStorage(transportFunc(func(r *http.Request) (*http.Response, error) {
		return reply(http.StatusBadRequest, `{"error":"mapper_parsing_exception"}`), nil
	}), "audit")

	err := s.Store(context.Background(), audit.Event{ID: "1", Action: "x"})
	assert.ErrorIs(t, err, audit.ErrStorageFailed)
}

func TestOpenSearchStorage_StoreBatch(t *testing.T) {
	t.Parallel()
	var lines []string
	s := audit.NewOpenSearchStorage(transportFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/_bulk", r.URL.Path)
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		return reply(http.StatusOK, `{"errors":false,"items":[]}`), nil
	}), "audit")

	err := s.StoreBatch(context.Background(), []audit.Event{
		{ID: "1", Action: "a"},
		{ID: "2", Action: "b"},
	})
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_index":"audit","_id":"1"}}`, lines[0])
	assert.JSONEq(t, `{"index":{"_index":"audit","_id":"2"}}`, lines[2])
}

func TestOpenSearchStorage_StoreBatchItemErrors(t *testing.T) {
	t.Parallel()
	s := audit.NewOpenSearchStorage(transportFunc(func(r *http.Request) (*http.Response, error) {
		return reply(http.StatusOK, `{"errors":true}`), nil
	}), "audit")

	err := s.StoreBatch(context.Background(), []audit.Event{{ID: "1", Action: "a"}})
	assert.ErrorIs(t, err, audit.ErrStorageFailed)
}

func TestOpenSearchStorage_Query(t *testing.T) {
	t.Parallel()
	var query map[string]any
	s := audit.NewOpenSearchStorage(transportFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/audit/_search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		return reply(http.StatusOK, `{"hits":{"hits":[{"_source":{"id":"1","user_id":"u","action":"two_factor.setup","result":"success","created_at":"2024-01-01T00:00:00Z"}}]}}`), nil
	}), "audit")

	events, err := s.Query(context.Background(), audit.Criteria{UserID: "u", Limit: 5})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "two_factor.setup", events[0].Action)
	assert.InDelta(t, 5, query["size"], 0)
}
