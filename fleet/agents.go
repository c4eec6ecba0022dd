package fleet

import (
	"sort"
	"sync"
	"time"

	"github.com/kwv/starchart/records"
)

// Sighting is the last time another agent's ships were seen.
type Sighting struct {
	Symbol    string    `json:"symbol"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// AgentTracker keeps the set of agents seen this session.
// It is safe for concurrent use.
type AgentTracker struct {
	mu     sync.RWMutex
	agents map[string]Sighting
}

// NewAgentTracker returns an empty tracker.
func NewAgentTracker() *AgentTracker {
	return &AgentTracker{agents: make(map[string]Sighting)}
}

// Load seeds the tracker from stored agent records.
func (t *AgentTracker) Load(recs []records.AgentRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range recs {
		t.agents[r.Symbol] = Sighting{Symbol: r.Symbol, FirstSeen: r.FirstSeen, LastSeen: r.LastSeen}
	}
}

// Seen records a sighting and reports whether the agent is new.
// Older sightings never move LastSeen backwards.
func (t *AgentTracker) Seen(symbol string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.agents[symbol]
	if !ok {
		t.agents[symbol] = Sighting{Symbol: symbol, FirstSeen: at, LastSeen: at}
		return true
	}
	if at.After(s.LastSeen) {
		s.LastSeen = at
		t.agents[symbol] = s
	}
	return false
}

// Len returns the number of agents seen.
func (t *AgentTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.agents)
}

// Snapshot returns a copy of all sightings, most recent first.
func (t *AgentTracker) Snapshot() []Sighting {
	t.mu.RLock()
	out := make([]Sighting, 0, len(t.agents))
	for _, s := range t.agents {
		out = append(out, s)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
