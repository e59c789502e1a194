package oee

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/shift"
)

func TestCombine_WeightedRate(t *testing.T) {
	ms := []models.ModelMetrics{
		{Model: "A", SuccessQty: 60, TotalQty: 60, TargetRate: rate(120)},
		{Model: "B", SuccessQty: 40, TotalQty: 40, TargetRate: rate(80)},
	}
	c := Combine(ms, 3600)
	assert.InDelta(t, 104.0, c.WeightedRate, 1e-9)
	assert.InDelta(t, 104.0, c.TheoreticalQty, 1e-9)
	assert.InDelta(t, 100.0/104.0, c.Performance, 1e-12)
	assert.InDelta(t, 1.0, c.Quality, 1e-12)
}

func TestCombine_SingleTargetedModelMatchesModel(t *testing.T) {
	w := models.NewTimeWindow(at(6, 0), at(9, 0))
	rows := records("T", rate(90), at(6, 0), time.Minute, 150, 12)
	rows = append(rows, records("U", nil, at(6, 3), time.Minute, 20, 5)...)

	res := Aggregate(rows, w, time.Time{}, shift.DefaultSchedule(), "mode1", Options{})
	c := Combine(res.Models, res.OperatingSeconds)

	var targeted models.ModelMetrics
	for _, m := range res.Models {
		if m.HasTarget() {
			targeted = m
		}
	}
	require.NotNil(t, targeted.Performance)
	assert.InDelta(t, *targeted.Performance, c.Performance, 1e-12)
	assert.InDelta(t, targeted.TheoreticalQty, c.TheoreticalQty, 1e-9)
	assert.InDelta(t, float64(170)/float64(187), c.Quality, 1e-12)
}

func TestCombine_NoTargetedOutput(t *testing.T) {
	ms := []models.ModelMetrics{
		{Model: "A", SuccessQty: 0, FailQty: 3, TotalQty: 0, TargetRate: rate(120)},
		{Model: "B", SuccessQty: 4, FailQty: 0, TotalQty: 4},
	}
	c := Combine(ms, 3600)
	assert.Zero(t, c.Performance)
	assert.Zero(t, c.TheoreticalQty)
	assert.InDelta(t, 4.0/7.0, c.Quality, 1e-12)

	empty := Combine(nil, 3600)
	assert.Zero(t, empty.Quality)
	assert.Zero(t, empty.Performance)
}

func TestBucketize_HistoricalDaySumsToWholeDay(t *testing.T) {
	day := models.NewTimeWindow(at(0, 0), at(0, 0).Add(24*time.Hour))
	rows := records("M1", rate(40), at(0, 0), 90*time.Second, 800, 60)
	now := day.End.Add(3 * time.Hour)
	sched := shift.DefaultSchedule()

	buckets := Bucketize(rows, day, now, sched, "mode3", Options{})
	require.Len(t, buckets, 24)

	var sumTheoretical, sumBreaks float64
	var sumSuccess, sumFail int64
	for _, b := range buckets {
		assert.False(t, b.IsCurrent)
		sumTheoretical += b.TheoreticalQty
		sumBreaks += b.BreakSeconds
		sumSuccess += b.SuccessQty
		sumFail += b.FailQty
	}

	whole := Aggregate(rows, day, now, sched, "mode3", Options{})
	c := Combine(whole.Models, whole.OperatingSeconds)
	assert.InDelta(t, c.TheoreticalQty, sumTheoretical, 1e-6)
	assert.InDelta(t, whole.BreakSeconds, sumBreaks, 1e-6)
	assert.Equal(t, c.SuccessQty, sumSuccess)
	assert.Equal(t, c.FailQty, sumFail)
}

func TestBucketize_BucketDeductsOwnBreaks(t *testing.T) {
	w := models.NewTimeWindow(at(9, 0), at(13, 0))
	buckets := Bucketize(nil, w, time.Time{}, shift.DefaultSchedule(), "mode1", Options{})
	require.Len(t, buckets, 4)
	assert.Equal(t, 3600.0, buckets[0].OperatingSeconds) // 09-10
	assert.Equal(t, 2700.0, buckets[1].OperatingSeconds) // 10-11, break a
	assert.Equal(t, 3600.0, buckets[2].OperatingSeconds) // 11-12
	assert.Equal(t, 1800.0, buckets[3].OperatingSeconds) // 12-13, break b
}

func TestBucketize_LiveWindowTruncatesCurrentHour(t *testing.T) {
	w := models.NewTimeWindow(at(6, 30), at(18, 0))
	rows := records("M1", rate(60), at(6, 30), time.Minute, 200, 0)
	now := at(9, 20)

	buckets := Bucketize(rows, w, now, noBreaks{}, "mode1", Options{})
	require.Len(t, buckets, 4)

	assert.Equal(t, at(6, 30), buckets[0].HourStart)
	assert.Equal(t, at(7, 0), buckets[0].HourEnd)
	assert.Equal(t, 1800.0, buckets[0].OperatingSeconds)

	last := buckets[3]
	assert.True(t, last.IsCurrent)
	assert.Equal(t, at(9, 0), last.HourStart)
	assert.Equal(t, now, last.HourEnd)
	assert.Equal(t, 1200.0, last.OperatingSeconds)
	// 09:00..09:20 inclusive
	assert.Equal(t, int64(21), last.SuccessQty)
	assert.InDelta(t, 21.0/20.0, last.Performance, 1e-12)
}

func TestBucketize_Idempotent(t *testing.T) {
	w := models.NewTimeWindow(at(0, 0), at(23, 0))
	rows := records("A", rate(55), at(0, 3), 2*time.Minute, 300, 30)
	rows = append(rows, records("B", rate(75), at(1, 1), 3*time.Minute, 200, 10)...)
	now := at(15, 42)

	first, err := json.Marshal(Bucketize(rows, w, now, shift.DefaultSchedule(), "mode2", Options{}))
	require.NoError(t, err)
	second, err := json.Marshal(Bucketize(rows, w, now, shift.DefaultSchedule(), "mode2", Options{}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBucketize_LiveBeforeStartIsEmpty(t *testing.T) {
	w := models.NewTimeWindow(at(12, 0), at(14, 0))
	assert.Empty(t, Bucketize(nil, w, at(11, 0), noBreaks{}, "mode1", Options{}))
}

func TestApplyBuckets_SetsUnitTheoretical(t *testing.T) {
	w := models.NewTimeWindow(at(6, 0), at(8, 0))
	rows := records("M1", rate(60), at(6, 0), time.Minute, 90, 0)
	res := Aggregate(rows, w, time.Time{}, noBreaks{}, "mode1", Options{})
	s := Summarize("U1", "mode1", w, res)

	ApplyBuckets(&s, Bucketize(rows, w, time.Time{}, noBreaks{}, "mode1", Options{}))
	require.Len(t, s.Hourly, 2)
	assert.InDelta(t, 120.0, s.TheoreticalQty, 1e-9)
	assert.InDelta(t, 90.0/120.0, s.Performance, 1e-12)
}

func TestRollup_WeightsByOutput(t *testing.T) {
	units := []models.UnitSummary{
		{Unit: "U1", SuccessQty: 300, FailQty: 0, TotalQty: 300, Performance: 0.9, TheoreticalQty: 333,
			Models: []models.ModelMetrics{{Model: "A", TotalQty: 300, TargetRate: rate(100)}}},
		{Unit: "U2", SuccessQty: 100, FailQty: 100, TotalQty: 100, Performance: 0.5, TheoreticalQty: 200,
			Models: []models.ModelMetrics{{Model: "B", TotalQty: 100, TargetRate: rate(50)}}},
		{Unit: "U3", SuccessQty: 10, TotalQty: 10, Performance: 0,
			Models: []models.ModelMetrics{{Model: "C", TotalQty: 10}}},
	}
	r := Rollup(units)
	assert.Equal(t, int64(410), r.SuccessQty)
	assert.Equal(t, int64(100), r.FailQty)
	assert.InDelta(t, 410.0/510.0, r.Quality, 1e-12)
	assert.InDelta(t, 0.75*0.9+0.25*0.5, r.Performance, 1e-12)
	assert.InDelta(t, 533.0, r.TheoreticalQty, 1e-9)
}
