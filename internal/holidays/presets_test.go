package holidays

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcdogyu/market-closure/internal/market"
)

func contains(hs []market.Holiday, y, m, d int) bool {
	for _, h := range hs {
		if h.Year == y && h.Month == m && h.Day == d {
			return true
		}
	}
	return false
}

func TestPresetNYSE(t *testing.T) {
	hs, err := Preset("nyse", []int{2022})
	require.NoError(t, err)

	assert.True(t, contains(hs, 2022, 1, 17), "MLK day")
	assert.True(t, contains(hs, 2022, 4, 15), "Good Friday")
	assert.True(t, contains(hs, 2022, 6, 20), "Juneteenth observed on Monday")
	assert.True(t, contains(hs, 2022, 11, 24), "Thanksgiving")
	assert.True(t, contains(hs, 2022, 12, 26), "Christmas observed on Monday")
	// New Year's Day 2022 fell on a Saturday; NYSE stayed open on Dec 31.
	assert.False(t, contains(hs, 2021, 12, 31))
	assert.False(t, contains(hs, 2022, 10, 10), "no Columbus Day")

	for _, h := range hs {
		assert.Empty(t, h.Hours, "preset holidays close the whole day")
		assert.NotEmpty(t, h.Name)
	}
}

func TestPresetUSFederal(t *testing.T) {
	hs, err := Preset("us_federal", []int{2022})
	require.NoError(t, err)
	assert.True(t, contains(hs, 2021, 12, 31), "New Year observed on prior Friday")
	assert.True(t, contains(hs, 2022, 10, 10), "Columbus Day")
	assert.True(t, contains(hs, 2022, 11, 11), "Veterans Day")
	assert.False(t, contains(hs, 2022, 4, 15))
}

func TestPresetSortedAcrossYears(t *testing.T) {
	hs, err := Preset("nyse", []int{2024, 2023})
	require.NoError(t, err)
	require.NotEmpty(t, hs)
	for i := 1; i < len(hs); i++ {
		a, b := hs[i-1], hs[i]
		assert.LessOrEqual(t, a.Year*10000+a.Month*100+a.Day, b.Year*10000+b.Month*100+b.Day)
	}
}

func TestPresetUnknown(t *testing.T) {
	_, err := Preset("lse", []int{2024})
	assert.Error(t, err)
	assert.False(t, Known("lse"))
	assert.Equal(t, []string{"nyse", "us_federal"}, Names())
}

func TestPresetFeedsEvaluator(t *testing.T) {
	hs, err := Preset("nyse", []int{2022})
	require.NoError(t, err)
	s := market.USEquities()
	s.Holidays = hs
	e := market.New(s)
	ny := e.Location()
	require.NotNil(t, ny)

	thanksgiving := mustDate(t, ny, 2022, 11, 24, 11, 0)
	assert.True(t, e.StatusAt(thanksgiving).Halted)
	nextDay := mustDate(t, ny, 2022, 11, 25, 11, 0)
	assert.False(t, e.StatusAt(nextDay).Halted)
}
