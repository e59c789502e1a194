package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/shift"
)

func sampleReport() *models.MultiUnitReport {
	start := time.Date(2024, time.March, 4, 6, 0, 0, 0, models.AppLocation)
	return &models.MultiUnitReport{
		Start: start,
		End:   start.Add(8 * time.Hour),
		Units: []models.UnitSummary{
			{Unit: "L1", SuccessQty: 90, FailQty: 10, TotalQty: 90, Quality: 0.9, Performance: 0.75, TheoreticalQty: 120},
		},
		Rollup: models.ReportRollup{SuccessQty: 90, FailQty: 10, Quality: 0.9, Performance: 0.75, TheoreticalQty: 120},
	}
}

func TestRender_JSONAndYAMLShareFieldNames(t *testing.T) {
	var jsonOut, yamlOut bytes.Buffer
	require.NoError(t, render(&jsonOut, "json", sampleReport()))
	require.NoError(t, render(&yamlOut, "yaml", sampleReport()))

	var fromJSON, fromYAML map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &fromJSON))
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	assert.Contains(t, fromJSON, "rollup")
	assert.Contains(t, fromYAML, "rollup")
	assert.Contains(t, yamlOut.String(), "total_success: 90")

	assert.Error(t, render(&jsonOut, "xml", sampleReport()))
}

func TestWriteReportTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeReportTable(&out, sampleReport()))
	assert.Contains(t, out.String(), "L1")
	assert.Contains(t, out.String(), "TOTAL")
	assert.Contains(t, out.String(), "75.0%")
}

func TestWriteSummaryTable_Hourly(t *testing.T) {
	rate := 60.0
	perf := 0.5
	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, models.AppLocation)
	s := &models.UnitSummary{
		Unit:   "L2",
		Start:  start,
		End:    start.Add(time.Hour),
		Models: []models.ModelMetrics{{Model: "M1", TargetRate: &rate, Performance: &perf, SuccessQty: 30}},
		Hourly: []models.HourBucket{{HourStart: start, HourEnd: start.Add(20 * time.Minute), IsCurrent: true}},
	}
	var out bytes.Buffer
	require.NoError(t, writeSummaryTable(&out, s))
	assert.Contains(t, out.String(), "09:00-09:20*")
	assert.Contains(t, out.String(), "50.0%")
}

func TestFilterTable(t *testing.T) {
	sched := shift.DefaultSchedule()

	full := filterTable(sched, "")
	assert.Len(t, full.Breaks, 9)

	mode2 := filterTable(sched, "mode2")
	require.Len(t, mode2.Breaks, 7)
	assert.Equal(t, "a", mode2.Breaks[0].ID)
	assert.Len(t, mode2.Modes, 1)

	// unknown modes resolve to the default
	fallback := filterTable(sched, "weekend")
	assert.Len(t, fallback.Breaks, 6)
	assert.Contains(t, fallback.Modes, "mode1")
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\nwebsocket:\n  push_interval: 12s\n"), 0o644))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	require.NoError(t, validateCmd.RunE(validateCmd, []string{path}))
	assert.Contains(t, out.String(), "Push interval:      12s")
	assert.Contains(t, out.String(), "Configuration is valid")

	require.NoError(t, os.WriteFile(path, []byte("environment: test\nwebsocket:\n  push_interval: 2s\n"), 0o644))
	assert.Error(t, validateCmd.RunE(validateCmd, []string{path}))
}
