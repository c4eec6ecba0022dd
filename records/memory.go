package records

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwv/starchart/traders"
)

// MemoryStore is an in-process Store used by tests and --offline runs.
type MemoryStore struct {
	mu        sync.RWMutex
	systems   map[string]SystemRecord
	waypoints map[string]WaypointRecord
	agents    map[string]AgentRecord
	scans     []ShipScan
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		systems:   make(map[string]SystemRecord),
		waypoints: make(map[string]WaypointRecord),
		agents:    make(map[string]AgentRecord),
	}
}

func waypointKey(system, waypoint string) string {
	return system + "/" + waypoint
}

func (s *MemoryStore) FindSystem(_ context.Context, symbol string) (*SystemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.systems[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertSystem(_ context.Context, system traders.System, now time.Time) (*SystemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.systems[system.Symbol]
	if !ok {
		rec = SystemRecord{ID: uuid.NewString(), FirstRetrieved: now}
	}
	rec.LastRetrieved = now
	rec.Data = system
	s.systems[system.Symbol] = rec
	return &rec, nil
}

func (s *MemoryStore) AllSystems(context.Context) ([]traders.System, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]traders.System, 0, len(s.systems))
	for _, rec := range s.systems {
		out = append(out, rec.Data)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *MemoryStore) FindWaypoint(_ context.Context, system, waypoint string) (*WaypointRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.waypoints[waypointKey(system, waypoint)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertWaypoint(_ context.Context, waypoint traders.Waypoint, now time.Time) (*WaypointRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := waypointKey(waypoint.SystemSymbol, waypoint.Symbol)
	rec, ok := s.waypoints[key]
	if !ok {
		rec = WaypointRecord{ID: uuid.NewString(), FirstRetrieved: now}
	}
	rec.LastRetrieved = now
	rec.Data = waypoint
	s.waypoints[key] = rec
	return &rec, nil
}

func (s *MemoryStore) FindAgent(_ context.Context, symbol string) (*AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.agents[symbol]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) UpsertAgentSighting(_ context.Context, symbol string, seen time.Time) (*AgentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.agents[symbol]
	if !ok {
		rec = AgentRecord{ID: uuid.NewString(), Symbol: symbol, FirstSeen: seen}
	}
	rec.LastSeen = seen
	s.agents[symbol] = rec
	return &rec, !ok, nil
}

func (s *MemoryStore) AllAgents(context.Context) ([]AgentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AgentRecord, 0, len(s.agents))
	for _, rec := range s.agents {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *MemoryStore) InsertScan(_ context.Context, scan ShipScan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	s.scans = append(s.scans, scan)
	return nil
}

// Scans returns a copy of the stored scans in insertion order.
func (s *MemoryStore) Scans() []ShipScan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ShipScan(nil), s.scans...)
}

func (s *MemoryStore) Close(context.Context) error { return nil }
