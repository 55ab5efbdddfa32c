package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varq/internal/builtin"
	"github.com/roach88/varq/internal/config"
	"github.com/roach88/varq/internal/testutil"
	"github.com/roach88/varq/internal/variant"
)

// switchSource returns whichever snapshot was set last, or err.
type switchSource struct {
	snap  atomic.Pointer[variant.Snapshot]
	err   error
	calls atomic.Int64
}

func (s *switchSource) Snapshot(context.Context) (*variant.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.snap.Load(), nil
}

func newTestServer(t *testing.T, upstream *switchSource, cfg config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(upstream, builtin.Capabilities(), cfg, logger)
}

func orderSnapshot(t *testing.T) *variant.Snapshot {
	return testutil.Snapshot(t,
		testutil.ChainVariant(t, 1, "Register", "Check", "Ship"),
		testutil.ChainVariant(t, 2, "Register", "Cancel"),
		testutil.ChainVariant(t, 3, "Check", "Ship"),
	)
}

func loadedServer(t *testing.T) *Server {
	t.Helper()
	up := &switchSource{}
	up.snap.Store(orderSnapshot(t))
	s := newTestServer(t, up, config.Default())
	_, err := s.Reload(context.Background())
	require.NoError(t, err)
	return s
}

func post(t *testing.T, s *Server, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, s, req)
}

func do(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestTextualRoute(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/variant-query", `{"queryString":"Check -> Ship"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, []any{float64(1), float64(3)}, body["ids"])
}

func TestTextualRoute_LexError(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/variant-query", `{"queryString":"A ->> B"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "unexpected character '>'", body["error"])
	assert.Equal(t, float64(4), body["error_index"])
	assert.NotContains(t, body, "ids")
}

func TestPatternRoute(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/queryPattern",
		`{"pattern":{"follows":[{"leaf":["Register"]},{"leaf":["Ship"]}]},"type":"VM"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, []any{float64(1)}, body["ids"])
}

func TestPatternRoute_DefaultType(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/queryPattern", `{"pattern":{"leaf":["Cancel"]}}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, []any{float64(2)}, body["ids"])
}

func TestPatternRoute_InvalidType(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/queryPattern", `{"pattern":{"leaf":["Cancel"]},"type":"bfs"}`)
	assert.Equal(t, 200, status)
	assert.Contains(t, body["error"], `invalid query type "bfs"`)
	assert.NotContains(t, body, "error_index")
}

func TestLogicalRoute(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/queryLogicalPattern", `{
		"type": "DFS",
		"pattern": {"type": "and", "children": [
			{"type": "query", "pattern": {"leaf": ["Ship"]}},
			{"type": "or", "children": [
				{"type": "query", "pattern": {"leaf": ["Register"]}},
				{"type": "query", "pattern": {"leaf": ["Cancel"]}}
			]}
		]}
	}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, []any{float64(1)}, body["ids"])
}

func TestLogicalRoute_InvalidType(t *testing.T) {
	s := loadedServer(t)

	status, body := post(t, s, "/variantQuery/queryLogicalPattern", `{"type": "NOT_A_TYPE", "pattern": {"type": "and"}}`)
	assert.Equal(t, 200, status)
	assert.Contains(t, body["error"], `invalid query type "NOT_A_TYPE"`)
	assert.NotContains(t, body, "ids")
}

func TestQueryRoutes_InvalidBody(t *testing.T) {
	s := loadedServer(t)

	for _, path := range []string{
		"/variantQuery/variant-query",
		"/variantQuery/queryPattern",
		"/variantQuery/queryLogicalPattern",
	} {
		t.Run(path, func(t *testing.T) {
			status, body := post(t, s, path, `{not json`)
			assert.Equal(t, 400, status)
			assert.Equal(t, "invalid body", body["error"])
		})
	}
}

func TestQueries_BeforeFirstReload(t *testing.T) {
	up := &switchSource{}
	up.snap.Store(orderSnapshot(t))
	s := newTestServer(t, up, config.Default())

	status, body := post(t, s, "/variantQuery/variant-query", `{"queryString":"Ship"}`)
	assert.Equal(t, 200, status)
	assert.Contains(t, body["error"], "snapshot unavailable")

	status, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, 503, status)
	assert.Equal(t, int64(0), up.calls.Load(), "queries must not hit upstream")
}

func TestReload_SwapsSnapshot(t *testing.T) {
	up := &switchSource{}
	up.snap.Store(orderSnapshot(t))
	s := newTestServer(t, up, config.Default())

	status, body := post(t, s, "/reload", ``)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(3), body["variants"])

	up.snap.Store(testutil.Snapshot(t, testutil.ChainVariant(t, 9, "Ship")))

	// Still the old snapshot until the next reload.
	_, body = post(t, s, "/variantQuery/variant-query", `{"queryString":"Ship"}`)
	assert.Equal(t, []any{float64(1), float64(3)}, body["ids"])

	_, body = post(t, s, "/reload", ``)
	assert.Equal(t, float64(1), body["variants"])

	_, body = post(t, s, "/variantQuery/variant-query", `{"queryString":"Ship"}`)
	assert.Equal(t, []any{float64(9)}, body["ids"])

	status, body = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, 200, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["variants"])
}

func TestReload_FailureKeepsSnapshot(t *testing.T) {
	s := loadedServer(t)
	upstream := s.source.upstream.(*switchSource)
	upstream.err = errors.New("disk gone")

	status, body := post(t, s, "/reload", ``)
	assert.Equal(t, 500, status)
	assert.Equal(t, "disk gone", body["error"])

	_, body = post(t, s, "/variantQuery/variant-query", `{"queryString":"Cancel"}`)
	assert.Equal(t, []any{float64(2)}, body["ids"])
}

func TestMetricsRoute(t *testing.T) {
	s := loadedServer(t)
	post(t, s, "/variantQuery/variant-query", `{"queryString":"Ship"}`)
	post(t, s, "/variantQuery/variant-query", `{"queryString":"A ->> B"}`)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, text, `varq_evaluations_total{code="OK",op="textual"} 1`)
	assert.Contains(t, text, `varq_evaluations_total{code="LEX_ERROR",op="textual"} 1`)
	assert.Contains(t, text, `varq_snapshot_variants 3`)
	assert.Contains(t, text, `varq_snapshot_reloads_total{status="ok"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics = false
	up := &switchSource{}
	up.snap.Store(orderSnapshot(t))
	s := newTestServer(t, up, cfg)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 404, resp.StatusCode)
}
