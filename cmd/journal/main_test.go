package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-journal/internal/domain"
)

const legsJSON = `[
  {"dateTime": "2024-03-01T15:00:00Z", "quantity": 10, "position": "Sell", "price": 1.5},
  {"dateTime": "2024-03-01T14:00:00Z", "quantity": 10, "position": "Buy", "price": 1}
]`

const exportJSON = `{
  "strategies": [{
    "strategy": {"id": "s1", "userId": "u1", "name": "Breakouts"},
    "bets": [{
      "id": "b1",
      "strategyId": "s1",
      "dateTime": "2024-03-01T14:00:00Z",
      "market": "Stocks",
      "symbol": "AAPL",
      "status": "Lost",
      "return": -999,
      "legs": [
        {"id": "l1", "dateTime": "2024-03-01T14:00:00Z", "quantity": 10, "position": "Buy", "price": 1},
        {"id": "l2", "dateTime": "2024-03-01T15:00:00Z", "quantity": 10, "position": "Sell", "price": 1.5}
      ]
    }]
  }]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEvaluate_InitialSideIsFirstEntered(t *testing.T) {
	var out bytes.Buffer
	path := writeFile(t, "legs.json", legsJSON)

	require.NoError(t, newApp(&out).Run([]string{"journal", "evaluate", "--legs", path}))

	var got legSummaryOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, domain.StatusWon, got.Status)
	assert.InDelta(t, 0, got.NetQuantity, 1e-9)
	// The sell is entered first, so it opens a short even though it filled later.
	assert.InDelta(t, 15, got.Risk, 1e-9)
	assert.InDelta(t, 5, got.Return, 1e-9)
	assert.InDelta(t, 100.0/3, got.ReturnPercentage, 1e-9)
}

func TestEvaluate_InvalidJSON(t *testing.T) {
	path := writeFile(t, "legs.json", "not json")
	err := newApp(&bytes.Buffer{}).Run([]string{"journal", "evaluate", "--legs", path})
	assert.Error(t, err)
}

func TestMetrics_RecomputesFromLegs(t *testing.T) {
	var out bytes.Buffer
	path := writeFile(t, "export.json", exportJSON)

	require.NoError(t, newApp(&out).Run([]string{"journal", "metrics", "--file", path}))

	var got []strategyMetricsOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].StrategyID)
	assert.Equal(t, "Breakouts", got[0].Name)
	assert.InDelta(t, 5, got[0].Metrics.TotalPnL, 1e-9)
	assert.InDelta(t, 100, got[0].Metrics.WinRate, 1e-9)
}

func TestMetrics_InvalidTimezone(t *testing.T) {
	path := writeFile(t, "export.json", exportJSON)
	err := newApp(&bytes.Buffer{}).Run([]string{"journal", "metrics", "--file", path, "--timezone", "Mars/Olympus"})
	assert.Error(t, err)
}

func TestReport_WritesAllFiles(t *testing.T) {
	var out bytes.Buffer
	path := writeFile(t, "export.json", exportJSON)
	outDir := filepath.Join(t.TempDir(), "reports")

	require.NoError(t, newApp(&out).Run([]string{"journal", "report", "--file", path, "--out", outDir}))

	for _, name := range []string{"report.md", "metrics.csv", "bets.csv", "pnl.csv"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
	md, err := os.ReadFile(filepath.Join(outDir, "report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Breakouts")
}
