package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateFlawlessCampaign(t *testing.T) {
	report, err := Simulate(context.Background(), SimConfig{Seed: 7, BuyUpgrades: true})
	require.NoError(t, err)

	require.Len(t, report.Missions, 6)
	for _, m := range report.Missions {
		assert.Equal(t, OutcomeSuccess, m.Outcome, "node %s", m.Node)
		assert.Zero(t, m.Retries)
	}
	assert.Equal(t, "nexus-core", report.Missions[5].Node)
	assert.Equal(t, StateGameComplete, report.Final.State)
	assert.Len(t, report.Final.Profile.Intel, 6)
	assert.NotEmpty(t, report.Final.Profile.Upgrades)
	assert.Equal(t, 6, report.Final.History.MissionsCompleted)
	assert.Greater(t, report.Elapsed.Seconds(), 0.0)
}

func TestSimulateHopelessAgentIsTraced(t *testing.T) {
	report, err := Simulate(context.Background(), SimConfig{Seed: 3, FailChance: 1})
	require.NoError(t, err)

	require.Len(t, report.Missions, 1)
	m := report.Missions[0]
	assert.Equal(t, "surveillance-grid", m.Node)
	assert.Equal(t, OutcomeTraced, m.Outcome)
	assert.Greater(t, m.Retries, 0)
	assert.Equal(t, StateGameOver, report.Final.State)
	assert.Equal(t, MinDifficulty, report.Final.Difficulty)
}

func TestSimulateIsReproducible(t *testing.T) {
	cfg := SimConfig{Seed: 11, FailChance: 0.3, MaxMissions: 8}
	a, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Simulate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Missions, b.Missions)
	assert.Equal(t, a.Elapsed, b.Elapsed)
}

func TestSimulateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, SimConfig{Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
