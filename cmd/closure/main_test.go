package main

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/market"
	"github.com/pcdogyu/market-closure/internal/service"
)

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := config.Load("../../configs/config.yaml")
	require.NoError(t, err)
	assert.Len(t, cfg.Venues, 3)

	reg, err := service.NewRegistry(cfg)
	require.NoError(t, err)
	// Thursday 2026-10-01 10:00 Shanghai.
	st, err := reg.StatusAt("XSHG", time.Date(2026, 10, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, st.InHours)
	assert.True(t, st.InHoliday)
	assert.True(t, st.Halted)
}

func TestRunCheckExitCode(t *testing.T) {
	reg, err := service.NewRegistry(config.Config{Venues: []config.Venue{
		{Name: "XNYS", Schedule: market.USEquities()},
	}})
	require.NoError(t, err)

	open := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, runCheck(reg, "XNYS", open))
	assert.Equal(t, 1, runCheck(reg, "XNYS", open.Add(8*time.Hour)))
	assert.Equal(t, 0, runCheck(reg, "", open.Add(8*time.Hour)), "listing never fails")
	assert.Equal(t, 2, runCheck(reg, "XLON", open))
}

func TestImportRange(t *testing.T) {
	now := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

	start, end, err := importRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), end)

	start, end, err = importRange("2024-01-01", "2024-06-30", now)
	require.NoError(t, err)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, time.June, end.Month())

	_, _, err = importRange("2024-06-30", "2024-01-01", now)
	assert.Error(t, err)
	_, _, err = importRange("01/01/2024", "", now)
	assert.Error(t, err)
}
