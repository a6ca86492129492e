package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BreachProtocol/internal/game"
	"BreachProtocol/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCatalogValidate(t *testing.T) {
	out, err := run(t, "catalog", "validate", filepath.Join("internal", "game", "catalog.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "6 nodes (1 boss), 3 upgrades, 6 intel logs")
}

func TestCatalogValidateRejectsCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodes:
  - id: a
    name: A
    difficulty: easy
    baseReward: 10
    puzzleTypes: {firewall: sequence, data: sequence}
    puzzleLength: 3
    requires: [b]
  - id: b
    name: B
    difficulty: easy
    baseReward: 10
    puzzleTypes: {firewall: sequence, data: sequence}
    puzzleLength: 3
    requires: [a]
`), 0o600))
	_, err := run(t, "catalog", "validate", path)
	assert.ErrorIs(t, err, game.ErrInvalidConfig)
}

func TestSimulateJSON(t *testing.T) {
	out, err := run(t, "simulate", "--seed", "7", "--json")
	require.NoError(t, err)

	var report game.SimReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Missions, 6)
	assert.Equal(t, game.StateGameComplete, report.Final.State)
}

func TestSaveListAndReset(t *testing.T) {
	dir := t.TempDir()
	cfg := store.DefaultConfig(dir)
	cfg.GCInterval = 0
	st, err := store.Open(cfg)
	require.NoError(t, err)
	snap := game.Snapshot{Version: game.SnapshotVersion, AgentName: "cipher", Credits: 250}
	require.NoError(t, st.ForAgent("cipher").Save(context.Background(), snap))
	require.NoError(t, st.Close())

	out, err := run(t, "save", "list", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "cipher\tC 250")

	_, err = run(t, "save", "reset", "--data-dir", dir, "--agent", "cipher")
	require.NoError(t, err)
	out, err = run(t, "save", "list", "--data-dir", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "cipher")
}

func TestSaveResetNeedsAgent(t *testing.T) {
	_, err := run(t, "save", "reset", "--data-dir", t.TempDir())
	assert.Error(t, err)
}
