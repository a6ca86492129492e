// Package store keeps agent saves in an embedded Badger database, one key
// per agent.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"BreachProtocol/internal/game"
)

const keyPrefix = "agent/"

// Config selects where and how the database is opened.
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	// GCInterval enables periodic value log GC for on-disk databases.
	GCInterval time.Duration
	Logger     *zap.Logger
}

// DefaultConfig is a durable on-disk database at path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true, GCInterval: 10 * time.Minute}
}

// InMemoryConfig is a throwaway database for tests and simulations.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger routes Badger's internal logging into zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }

// Store is a handle to the save database. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	log    *zap.Logger
	stopGC chan struct{}
	doneGC chan struct{}
}

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required for an on-disk database")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: log.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger: %w", err)
	}
	s := &Store{db: db, log: log}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval)
	}
	return s, nil
}

func (s *Store) startGC(every time.Duration) {
	s.stopGC = make(chan struct{})
	s.doneGC = make(chan struct{})
	go func() {
		defer close(s.doneGC)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopGC:
				return
			case <-ticker.C:
				if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					s.log.Warn("value log gc", zap.Error(err))
				}
			}
		}
	}()
}

// Close stops background GC and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
	}
	return s.db.Close()
}

func agentKey(agent string) []byte {
	return []byte(keyPrefix + agent + "/save")
}

// ForAgent returns the persistence handle for one agent.
func (s *Store) ForAgent(agent string) *AgentSave {
	return &AgentSave{store: s, agent: agent}
}

// Agents lists every agent with a save, in key order.
func (s *Store) Agents(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := strings.TrimPrefix(string(it.Item().Key()), keyPrefix)
			out = append(out, strings.TrimSuffix(key, "/save"))
		}
		return nil
	})
	return out, err
}

// AgentSave implements game.Persistence and game.Clearer for one agent.
type AgentSave struct {
	store *Store
	agent string
}

var (
	_ game.Persistence = (*AgentSave)(nil)
	_ game.Clearer     = (*AgentSave)(nil)
)

// Save implements game.Persistence.
func (a *AgentSave) Save(ctx context.Context, snap game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := game.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	err = a.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(agentKey(a.agent), data)
	})
	if err != nil {
		return fmt.Errorf("store: save %s: %w", a.agent, err)
	}
	a.store.log.Debug("save written", zap.String("agent", a.agent), zap.Int("bytes", len(data)))
	return nil
}

// Load implements game.Persistence. Undecodable data is reported as
// game.LoadCorrupted.
func (a *AgentSave) Load(ctx context.Context) (game.Snapshot, game.LoadStatus, error) {
	if err := ctx.Err(); err != nil {
		return game.Snapshot{}, game.LoadNone, err
	}
	var data []byte
	err := a.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(agentKey(a.agent))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return game.Snapshot{}, game.LoadNone, nil
	}
	if err != nil {
		return game.Snapshot{}, game.LoadNone, fmt.Errorf("store: load %s: %w", a.agent, err)
	}
	snap, err := game.DecodeSnapshot(data)
	if err != nil {
		a.store.log.Warn("corrupt save", zap.String("agent", a.agent), zap.Error(err))
		return game.Snapshot{}, game.LoadCorrupted, nil
	}
	return snap, game.LoadOK, nil
}

// Clear implements game.Clearer.
func (a *AgentSave) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(agentKey(a.agent))
	})
	if err != nil {
		return fmt.Errorf("store: clear %s: %w", a.agent, err)
	}
	return nil
}

// putRaw stores bytes verbatim, bypassing validation.
func (a *AgentSave) putRaw(data []byte) error {
	return a.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(agentKey(a.agent), data)
	})
}
