package game

import (
	"context"
	"errors"
	"testing"
)

func TestDecodeSnapshotCorruption(t *testing.T) {
	cases := map[string]string{
		"not json":         "{definitely not json",
		"negative credits": `{"version":1,"credits":-5}`,
		"anonymous intel":  `{"version":1,"credits":5,"discoveredLogs":[{"title":"x"}]}`,
		"anonymous node":   `{"version":1,"credits":5,"networkNodesState":[{"isLocked":true}]}`,
		"negative history": `{"version":1,"credits":5,"playerPerformanceHistory":{"puzzleFailures":-1}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(raw)); !errors.Is(err, ErrCorruptSnapshot) {
				t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
			}
		})
	}
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	in := Snapshot{
		Version:           SnapshotVersion,
		AgentName:         "cipher",
		Credits:           725,
		PurchasedUpgrades: map[UpgradeID]bool{UpgradeIceBreaker: true},
		DiscoveredLogs:    []DiscoveredIntel{{ID: "surveillance-grid", Title: "t", Content: "c", Source: "Surveillance Grid"}},
		Nodes:             []NodeFlags{{ID: "surveillance-grid", IsCompleted: true}, {ID: "data-archive"}},
		History:           PerformanceHistory{PuzzleSuccesses: 2, MissionsCompleted: 1, TotalCreditsEarned: 145},
	}
	data, err := EncodeSnapshot(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Credits != in.Credits || out.History != in.History || len(out.Nodes) != 2 || !out.PurchasedUpgrades[UpgradeIceBreaker] {
		t.Fatalf("snapshot changed in transit: %+v", out)
	}
}

func TestMemoryPersistenceStatuses(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryPersistence()

	if _, status, err := m.Load(ctx); err != nil || status != LoadNone {
		t.Fatalf("empty store: status %s err %v", status, err)
	}
	if err := m.Save(ctx, Snapshot{Version: SnapshotVersion, Credits: 10}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s, status, err := m.Load(ctx); err != nil || status != LoadOK || s.Credits != 10 {
		t.Fatalf("saved store: %+v status %s err %v", s, status, err)
	}
	m.SetRaw([]byte("garbage"))
	if _, status, err := m.Load(ctx); err != nil || status != LoadCorrupted {
		t.Fatalf("corrupt store: status %s err %v", status, err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, status, _ := m.Load(ctx); status != LoadNone {
		t.Fatalf("cleared store: status %s", status)
	}
	if err := m.Save(ctx, Snapshot{Credits: -1}); !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("invalid snapshot saved: %v", err)
	}
}
