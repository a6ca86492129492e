package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMissingTuningFileUsesDefaults(t *testing.T) {
	got, err := loadTuningFromFile(filepath.Join(t.TempDir(), "nope.yaml"), game.DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, game.DefaultTuning(), got)
}

func TestTuningFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
tuning:
  tickInterval: 250ms
  puzzleFailTrace: 12
  autoSave: false
`)
	got, err := loadTuningFromFile(path, game.DefaultTuning())
	require.NoError(t, err)

	want := game.DefaultTuning()
	want.TickInterval = 250 * time.Millisecond
	want.PuzzleFailTrace = 12
	want.AutoSave = false
	assert.Equal(t, want, got)
}

func TestTuningFileIsSanitized(t *testing.T) {
	path := writeConfig(t, `
tuning:
  tickInterval: -1s
  ambientChatterChance: 4
`)
	got, err := loadTuningFromFile(path, game.DefaultTuning())
	require.NoError(t, err)
	assert.Equal(t, game.TickInterval, got.TickInterval)
	assert.Equal(t, 1.0, got.AmbientChatterChance)
}

func TestBadTuningFileFallsBack(t *testing.T) {
	path := writeConfig(t, "tuning: [not, a, map")
	got, err := loadTuningFromFile(path, game.DefaultTuning())
	assert.Error(t, err)
	assert.Equal(t, game.DefaultTuning(), got)

	cfg := DefaultConfig()
	cfg.ConfigPath = path
	assert.Equal(t, game.DefaultTuning(), ResolveTuning(cfg, zap.NewNop()))
}

func TestOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, "tuning:\n  warnHigh: 60\n")
	credits := 900.0
	cfg := DefaultConfig()
	cfg.ConfigPath = path
	cfg.Overrides.StartingCredits = &credits
	got := ResolveTuning(cfg, zap.NewNop())
	assert.Equal(t, 60.0, got.WarnHigh)
	assert.Equal(t, 900.0, got.StartingCredits)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
dataDir: /var/lib/breach
catalog: campaign.yaml
`)
	cfg := DefaultConfig()
	cfg.ConfigPath = path
	got, err := LoadConfigFile(cfg, map[string]bool{"addr": true})
	require.NoError(t, err)
	assert.Equal(t, ":8080", got.Addr, "explicit flag wins")
	assert.Equal(t, "/var/lib/breach", got.DataDir)
	assert.Equal(t, "campaign.yaml", got.CatalogPath)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.DataDir = ""
	assert.Error(t, cfg.Validate(), "on-disk store needs a data dir")
	cfg.InMemory = true
	assert.NoError(t, cfg.Validate())

	cfg.Addr = ""
	assert.Error(t, cfg.Validate())
}
