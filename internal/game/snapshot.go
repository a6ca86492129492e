package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SnapshotVersion is written into every snapshot.
const SnapshotVersion = 1

var validate = validator.New()

// ErrCorruptSnapshot marks saved data that cannot be decoded or fails
// validation.
var ErrCorruptSnapshot = errors.New("game: corrupt snapshot")

// LoadStatus distinguishes a missing save from a corrupt one.
type LoadStatus int

const (
	LoadNone LoadStatus = iota
	LoadOK
	LoadCorrupted
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadCorrupted:
		return "corrupted"
	default:
		return "none"
	}
}

// NodeFlags is the persisted runtime state of one node.
type NodeFlags struct {
	ID          string `json:"id" validate:"required"`
	IsLocked    bool   `json:"isLocked"`
	IsCompleted bool   `json:"isCompleted"`
}

// Snapshot is everything persisted between sessions.
type Snapshot struct {
	Version           int                `json:"version" validate:"gte=0"`
	AgentName         string             `json:"agentName"`
	Credits           float64            `json:"credits" validate:"gte=0"`
	PurchasedUpgrades map[UpgradeID]bool `json:"purchasedUpgrades"`
	DiscoveredLogs    []DiscoveredIntel  `json:"discoveredLogs" validate:"dive"`
	Nodes             []NodeFlags        `json:"networkNodesState" validate:"dive"`
	History           PerformanceHistory `json:"playerPerformanceHistory"`
}

// Validate checks field ranges.
func (s Snapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return nil
}

// EncodeSnapshot serialises a snapshot as JSON.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// DecodeSnapshot parses and validates a JSON snapshot. Any failure wraps
// ErrCorruptSnapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Persistence stores one agent's snapshot.
type Persistence interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns LoadNone when nothing was saved and LoadCorrupted when the
	// stored data is unusable; neither is an error.
	Load(ctx context.Context) (Snapshot, LoadStatus, error)
}

// Clearer is implemented by persistence backends that can drop a save.
type Clearer interface {
	Clear(ctx context.Context) error
}

// MemoryPersistence keeps the encoded snapshot in memory. It is safe for
// concurrent use.
type MemoryPersistence struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryPersistence returns an empty in-memory store.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

// Save implements Persistence.
func (m *MemoryPersistence) Save(ctx context.Context, s Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeSnapshot(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

// Load implements Persistence.
func (m *MemoryPersistence) Load(ctx context.Context) (Snapshot, LoadStatus, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, LoadNone, err
	}
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return Snapshot{}, LoadNone, nil
	}
	s, err := DecodeSnapshot(data)
	if err != nil {
		return Snapshot{}, LoadCorrupted, nil
	}
	return s, LoadOK, nil
}

// Clear implements Clearer.
func (m *MemoryPersistence) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// SetRaw replaces the stored bytes verbatim.
func (m *MemoryPersistence) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}
