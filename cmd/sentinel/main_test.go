package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/model"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"SQLITE_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CRON_CYCLE", "LOG_LEVEL", "SYMBOLS_STRICT", "RUN_ON_START"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	cfg := `
providers:
  order: [synthetic]
  history_days: 30
database:
  sqlite_path: ` + filepath.Join(dir, "sentinel.db") + `
log:
  level: error
subscribers:
  - id: ana
    name: Ana
    watchlist: [PETR4, VALE3]
    portfolio:
      - {symbol: PETR4, quantity: 100, avg_price: 30}
  - id: bia
    watchlist: [VALE3, ITUB4F]
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	path := writeTestConfig(t)
	out, err := execute(t, "--config", path, "analyze", "--json", "petr4", "VALE3F")
	require.NoError(t, err)

	var results []model.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "PETR4", results[0].Symbol)
	assert.Equal(t, "VALE3F", results[1].Symbol)
	assert.True(t, results[1].IsFractional)
	assert.Equal(t, model.SourceSimulated, results[0].DataSource)
}

func TestAnalyzeCommand_InvalidSymbol(t *testing.T) {
	path := writeTestConfig(t)
	out, err := execute(t, "--config", path, "analyze", "PETR4", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
	assert.Contains(t, out, "PETR4")
	assert.Contains(t, out, "holding:")
}

func TestCycleAndHistoryCommands(t *testing.T) {
	path := writeTestConfig(t)
	out, err := execute(t, "--config", path, "cycle")
	require.NoError(t, err)
	assert.Contains(t, out, "3 symbols, 3 analyzed, 0 failed")

	out, err = execute(t, "--config", path, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "CYCLE")
	assert.Contains(t, out, "NOTIFIED")
	lines := bytes.Count([]byte(out), []byte("\n"))
	assert.Equal(t, 2, lines)
}

func TestProvidersCommand(t *testing.T) {
	path := writeTestConfig(t)
	out, err := execute(t, "--config", path, "providers", "ITUB4")
	require.NoError(t, err)
	assert.Contains(t, out, "synthetic")
	assert.Contains(t, out, "ITUB4")
	assert.Contains(t, out, "true")
}

func TestInvalidConfig(t *testing.T) {
	path := writeTestConfig(t)
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  order: [yahoo]\n"), 0o644))
	_, err := execute(t, "--config", path, "cycle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthetic")
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b", oneLine("a\nb"))
	long := oneLine(string(bytes.Repeat([]byte("x"), 120)))
	assert.Len(t, long, 80)
}
