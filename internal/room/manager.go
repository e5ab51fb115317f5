package room

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"pkt.systems/pslog"

	"LiveCanvas/internal/logx"
	"LiveCanvas/internal/roomstore"
	"LiveCanvas/internal/state"
)

// Snapshots persists room tables between relay restarts.
type Snapshots interface {
	Save(ctx context.Context, room string, ops []state.Op) error
	Load(ctx context.Context, room string) ([]state.Op, error)
}

// Manager owns the rooms of one relay process.
type Manager struct {
	log   pslog.Logger
	store Snapshots

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewManager creates a manager. store may be nil to keep rooms in memory only.
func NewManager(log pslog.Logger, store Snapshots) *Manager {
	return &Manager{
		log:   logx.OrDefault(log),
		store: store,
		rooms: make(map[string]*Room),
	}
}

// Room returns the room with id, creating it and restoring its snapshot on
// first use.
func (m *Manager) Room(ctx context.Context, id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := New(id, m.log)
	if m.store != nil {
		ops, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			r.Seed(ops)
			logx.WithRoom(m.log, id).Info("room restored", "ops", len(ops))
		case errors.Is(err, roomstore.ErrNotFound):
		default:
			logx.WithRoom(m.log, id).Warn("room snapshot unreadable, starting empty", "err", err)
		}
	}
	m.rooms[id] = r
	return r
}

// Lookup returns an existing room without creating it.
func (m *Manager) Lookup(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Rooms lists the open room ids.
func (m *Manager) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.rooms))
}

// Backup saves every room whose table changed since the previous backup.
func (m *Manager) Backup(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	var errs []error
	for _, id := range m.Rooms() {
		r, ok := m.Lookup(id)
		if !ok || !r.TakeDirty() {
			continue
		}
		if err := m.store.Save(ctx, id, r.Snapshot()); err != nil {
			r.markDirty()
			errs = append(errs, err)
			continue
		}
		logx.WithRoom(m.log, id).Debug("room backed up")
	}
	return errors.Join(errs...)
}

// RunBackups calls Backup every interval until ctx ends, then once more.
func (m *Manager) RunBackups(ctx context.Context, interval time.Duration) {
	if m.store == nil || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := m.Backup(ctx); err != nil {
				m.log.Error("failed to back up rooms", "err", err)
			}
		case <-ctx.Done():
			if err := m.Backup(context.WithoutCancel(ctx)); err != nil {
				m.log.Error("failed to back up rooms on shutdown", "err", err)
			}
			return
		}
	}
}
