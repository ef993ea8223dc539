package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/market"
	"github.com/pcdogyu/market-closure/internal/memstore"
	"github.com/pcdogyu/market-closure/internal/runtimecfg"
	"github.com/pcdogyu/market-closure/internal/service"
	"github.com/pcdogyu/market-closure/internal/store/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Monday 2024-03-04 15:00 UTC is 10:00 in New York.
var testNow = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := config.Config{
		DBPath: filepath.Join(t.TempDir(), "closure.db"),
		Alpaca: config.Alpaca{APIKey: "secret-key"},
		Venues: []config.Venue{{Name: "XNYS", Schedule: market.USEquities(), Suffixes: []string{"", "US"}}},
	}
	require.NoError(t, config.NormalizeAndValidate(&cfg))
	mgr := runtimecfg.NewStatic(cfg)

	reg, err := service.NewRegistry(cfg, service.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	mgr.OnUpdate(reg.Reload)

	db, err := sqlite.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	s := New(mgr, reg, memstore.New(), db, nil)
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetVenue(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/venues/XNYS", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st service.VenueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "XNYS", st.Venue)
	assert.False(t, st.Halted)
	assert.True(t, st.InHours)
	assert.Equal(t, "monday", st.Weekday)

	w = do(t, h, http.MethodGet, "/api/venues/XNYS?at=2024-03-09T15:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Halted, "saturday")

	w = do(t, h, http.MethodGet, "/api/venues/XNYS?at=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/venues/XLON", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVenues(t *testing.T) {
	s, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/venues", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all []service.VenueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)

	w = do(t, h, http.MethodGet, "/api/venues?cached=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s.mem.Set(all[0])
	w = do(t, h, http.MethodGet, "/api/venues?cached=1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "XNYS", all[0].Venue)
}

func TestVenueHistory(t *testing.T) {
	s, h := newTestServer(t)
	for i := 0; i < 3; i++ {
		ts := testNow.Add(time.Duration(i) * time.Minute)
		require.NoError(t, sqlite.InsertStatus(s.db, ts, "XNYS", market.Status{Local: ts, Halted: i%2 == 0}))
	}

	w := do(t, h, http.MethodGet, "/api/venues/XNYS/history?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []sqlite.StatusRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Halted)
	assert.True(t, rows[1].Halted)

	w = do(t, h, http.MethodGet, "/api/venues/XLON/history", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-key")

	// Close the whole of today in New York.
	w = do(t, h, http.MethodPost, "/api/config",
		`{"venue":"XNYS","add_holidays":[{"year":2024,"month":3,"day":4,"name":"outage"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view configView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Venues, 1)
	assert.Equal(t, []market.Holiday{{Year: 2024, Month: 3, Day: 4, Name: "outage"}}, view.Venues[0].Holidays)

	w = do(t, h, http.MethodGet, "/api/venues/XNYS", "")
	var st service.VenueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.InHoliday)
	assert.True(t, st.Halted)

	w = do(t, h, http.MethodPost, "/api/config", `{"venue":"XNYS","hours":{"monday":["9am-4pm"]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/config", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 200, parseLimit("", 200, 2000))
	assert.Equal(t, 200, parseLimit("x", 200, 2000))
	assert.Equal(t, 200, parseLimit("-3", 200, 2000))
	assert.Equal(t, 50, parseLimit("50", 200, 2000))
	assert.Equal(t, 2000, parseLimit("99999", 200, 2000))
}

func TestGetSymbol(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/symbols/AAPL.US", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st service.VenueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "XNYS", st.Venue)
	assert.False(t, st.Halted)

	w = do(t, h, http.MethodGet, "/api/symbols/MSFT?at=2024-03-04T22:00:00Z", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.True(t, st.Halted)

	w = do(t, h, http.MethodGet, "/api/symbols/600519.SH", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/symbols/BRK.B.US", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSymbolCode(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/symbols/aapl.us", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Symbol string `json:"symbol"`
		Code   string `json:"code"`
		Venue  string `json:"venue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "aapl.us", got.Symbol)
	assert.Equal(t, "aapl", got.Code)
	assert.Equal(t, "XNYS", got.Venue)
}

func TestGetVenueCached(t *testing.T) {
	s, h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/venues/XNYS?cached=1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	st, err := s.reg.Status("XNYS")
	require.NoError(t, err)
	st.Halted = true
	s.mem.Set(st)

	w = do(t, h, http.MethodGet, "/api/venues/XNYS?cached=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got service.VenueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Halted)

	w = do(t, h, http.MethodGet, "/api/venues/XNYS", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Halted)
}
