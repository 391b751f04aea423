package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/form13f/internal/config"
	"github.com/seenimoa/form13f/internal/corpus"
	"github.com/seenimoa/form13f/internal/tables"
)

const fixture = `{
  "source": "sec-13f",
  "managers": [
    {
      "id": "fund",
      "name": "Example Fund",
      "filings": [
        {
          "quarter": "2024Q1",
          "filed_date": "2024-05-15",
          "total_value_usd": 1000000000,
          "holdings": [
            {"code": "037833100", "issuer": "APPLE INC", "value_usd": 600000000, "shares": 1000},
            {"code": "191216100", "issuer": "COCA COLA CO", "value_usd": 400000000, "shares": 4000}
          ]
        },
        {
          "quarter": "2024Q2",
          "filed_date": "2024-08-14",
          "total_value_usd": 1000000000,
          "holdings": [
            {"code": "037833100", "issuer": "APPLE INC", "value_usd": 700000000, "shares": 1200},
            {"code": "191216100", "issuer": "COCA COLA CO", "value_usd": 300000000, "shares": 3000}
          ]
        }
      ]
    }
  ]
}`

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func testServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ds, _, err := corpus.Load(strings.NewReader(fixture), log)
	require.NoError(t, err)
	c := corpus.New(ds, tables.MustDefault(), corpus.Options{}, log)

	cfg := &config.Config{API: config.APIConfig{CacheTTL: 60}}
	return NewServer(cfg, c, log)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

// decodeData decodes the envelope and re-decodes its data field into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return APIResponse{Success: raw.Success, Error: raw.Error}
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	srv := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var data map[string]any
			resp := decodeData(t, rec, &data)
			assert.True(t, resp.Success)
			assert.Equal(t, "ok", data["status"])
			assert.EqualValues(t, 1, data["managers"])
		})
	}
}

func TestHandleManagers(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv, "/api/v1/managers")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []corpus.ManagerInfo
	decodeData(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "fund", list[0].ID)
	assert.Equal(t, []string{"2024Q1", "2024Q2"}, list[0].Quarters)

	rec = get(t, srv, "/api/v1/managers/fund")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownManager(t *testing.T) {
	srv := testServer(t)
	paths := []string{
		"/api/v1/managers/nobody",
		"/api/v1/managers/nobody/snapshots/latest",
		"/api/v1/managers/nobody/snapshots/2024Q1",
		"/api/v1/managers/nobody/changes/2024Q2",
		"/api/v1/managers/nobody/style/2024Q2",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			resp := decodeData(t, rec, nil)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, "manager not found")
		})
	}
}

func TestHandleSnapshot(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/api/v1/managers/fund/snapshots/2024Q1")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		Quarter  string  `json:"quarter"`
		Total    float64 `json:"total"`
		Holdings []struct {
			Ticker       string `json:"ticker"`
			DisplayLabel string `json:"displayLabel"`
		} `json:"holdings"`
	}
	decodeData(t, rec, &snap)
	assert.Equal(t, "2024Q1", snap.Quarter)
	assert.InDelta(t, 1.0, snap.Total, 1e-12)
	require.Len(t, snap.Holdings, 2)
	assert.Equal(t, "AAPL", snap.Holdings[0].Ticker)

	rec = get(t, srv, "/api/v1/managers/fund/snapshots/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &snap)
	assert.Equal(t, "2024Q2", snap.Quarter)
}

func TestUnavailableQuarter(t *testing.T) {
	srv := testServer(t)
	paths := []string{
		"/api/v1/managers/fund/snapshots/2019Q4",
		"/api/v1/managers/fund/changes/2024Q1", // first quarter has no predecessor
		"/api/v1/managers/fund/style/garbage",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv, path)
			assert.Equal(t, http.StatusOK, rec.Code)
			var u Unavailable
			u.Available = true
			resp := decodeData(t, rec, &u)
			assert.True(t, resp.Success)
			assert.False(t, u.Available)
			assert.Equal(t, "fund", u.ManagerID)
		})
	}
}

func TestHandleChanges(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv, "/api/v1/managers/fund/changes/2024Q2")
	require.Equal(t, http.StatusOK, rec.Code)

	var cs corpus.ChangeSet
	decodeData(t, rec, &cs)
	assert.Equal(t, "2024Q1", cs.PreviousQuarter)
	require.Len(t, cs.Rows, 2)
	assert.Len(t, cs.Adds, 1)
	assert.Len(t, cs.Trims, 1)
	assert.Equal(t, "AAPL", cs.Adds[0].Ticker)
	assert.Equal(t, "KO", cs.Trims[0].Ticker)
}

func TestHandleStyle(t *testing.T) {
	srv := testServer(t)
	rec := get(t, srv, "/api/v1/managers/fund/style/2024Q2")
	require.Equal(t, http.StatusOK, rec.Code)

	var sv struct {
		Profile map[string]float64 `json:"profile"`
		Radar   struct {
			Cap   float64 `json:"cap"`
			Gamma float64 `json:"gamma"`
		} `json:"radar"`
	}
	decodeData(t, rec, &sv)
	assert.InDelta(t, 0.7, sv.Profile["technology"], 1e-9)
	assert.InDelta(t, 0.3, sv.Profile["consumer"], 1e-9)
	assert.LessOrEqual(t, sv.Radar.Cap, 0.8)
	assert.GreaterOrEqual(t, sv.Radar.Cap, 0.2)
}

func TestHandleHeatmapAndBenchmark(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/api/v1/heatmap")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Key  string  `json:"key"`
		Heat float64 `json:"heat"`
	}
	decodeData(t, rec, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "AAPL", entries[0].Key)

	rec = get(t, srv, "/api/v1/style/benchmark")
	require.Equal(t, http.StatusOK, rec.Code)
	var bench map[string]json.RawMessage
	decodeData(t, rec, &bench)
	assert.Contains(t, bench, "benchmark")
	assert.Contains(t, bench, "scaled")
}

func TestHandleResolve(t *testing.T) {
	srv := testServer(t)

	rec := get(t, srv, "/api/v1/resolve?code=037833100")
	require.Equal(t, http.StatusOK, rec.Code)
	var res ResolveResponse
	decodeData(t, rec, &res)
	assert.Equal(t, "AAPL", res.Ticker)
	assert.NotEqual(t, "unresolved", res.Rule)

	rec = get(t, srv, "/api/v1/resolve?issuer=NOBODY+KNOWS+CORP")
	require.Equal(t, http.StatusOK, rec.Code)
	res = ResolveResponse{}
	decodeData(t, rec, &res)
	assert.Empty(t, res.Ticker)
	assert.Equal(t, "unresolved", res.Rule)

	rec = get(t, srv, "/api/v1/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewCache(t *testing.T) {
	srv := testServer(t)
	first := get(t, srv, "/api/v1/managers/fund/changes/2024Q2").Body.String()
	_, found := srv.cache.Get("changes:fund:2024Q2")
	assert.True(t, found)
	second := get(t, srv, "/api/v1/managers/fund/changes/2024Q2").Body.String()
	assert.Equal(t, first, second)

	// Lookup errors are not cached.
	get(t, srv, "/api/v1/managers/nobody/changes/2024Q2")
	_, found = srv.cache.Get("changes:nobody:2024Q2")
	assert.False(t, found)
}

func TestMetricsAndNotFound(t *testing.T) {
	srv := testServer(t)
	get(t, srv, "/health")

	rec := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "form13f_http_requests_total")

	rec = get(t, srv, "/api/v1/nothing-here")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decodeData(t, rec, nil).Success)
}

func TestAPIResponseJSON(t *testing.T) {
	data, err := json.Marshal(APIResponse{Success: false, Error: "boom"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(data))
}
