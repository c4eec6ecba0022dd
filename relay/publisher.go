package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotConnected is returned when publishing without a live connection.
var ErrNotConnected = errors.New("mqtt client not connected")

const publishTimeout = 2 * time.Second

// Sighting is the payload published when another agent's ship is spotted.
type Sighting struct {
	Agent     string `json:"agent"`
	Ship      string `json:"ship"`
	Waypoint  string `json:"waypoint"`
	Timestamp int64  `json:"timestamp"`
}

// AgentSummary is the retained per-agent message: the ships last seen and where.
type AgentSummary struct {
	Agent     string            `json:"agent"`
	Ships     map[string]string `json:"ships"`
	Timestamp int64             `json:"timestamp"`
}

// Publisher sends sightings and rendered maps to MQTT.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *log.Logger
	now    func() time.Time

	mu     sync.RWMutex
	agents map[string]*AgentSummary
}

// NewPublisher creates a publisher rooted at prefix. A nil client disables
// publishing; every call then returns ErrNotConnected.
func NewPublisher(client mqtt.Client, prefix string, logger *log.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
		agents: make(map[string]*AgentSummary),
	}
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// PublishSighting publishes the agent's retained summary to
// <prefix>/agents/<agent> and the single sighting to <prefix>/sightings.
func (p *Publisher) PublishSighting(agent, ship, waypoint string) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}
	ts := p.now().Unix()

	p.mu.Lock()
	summary, ok := p.agents[agent]
	if !ok {
		summary = &AgentSummary{Agent: agent, Ships: make(map[string]string)}
		p.agents[agent] = summary
	}
	summary.Ships[ship] = waypoint
	summary.Timestamp = ts
	payload, err := json.Marshal(summary)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshaling agent %s: %w", agent, err)
	}

	if err := p.publish(p.prefix+"/agents/"+agent, true, payload); err != nil {
		return err
	}

	payload, err = json.Marshal(Sighting{Agent: agent, Ship: ship, Waypoint: waypoint, Timestamp: ts})
	if err != nil {
		return fmt.Errorf("marshaling sighting: %w", err)
	}
	if err := p.publish(p.prefix+"/sightings", false, payload); err != nil {
		return err
	}

	p.logger.Debug("Published sighting", "agent", agent, "ship", ship, "waypoint", waypoint)
	return nil
}

// PublishMap publishes a rendered PNG, retained, to <prefix>/maps/<name>.
func (p *Publisher) PublishMap(name string, png []byte) error {
	if p.client == nil || !p.client.IsConnected() {
		return ErrNotConnected
	}
	if err := p.publish(p.prefix+"/maps/"+name, true, png); err != nil {
		return err
	}
	p.logger.Info("Published map", "name", name, "bytes", len(png))
	return nil
}

func (p *Publisher) publish(topic string, retain bool, payload []byte) error {
	token := p.client.Publish(topic, p.qos, retain, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// Agents returns a copy of every agent summary, ordered by agent symbol.
func (p *Publisher) Agents() []AgentSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]AgentSummary, 0, len(p.agents))
	for _, s := range p.agents {
		ships := make(map[string]string, len(s.Ships))
		for k, v := range s.Ships {
			ships[k] = v
		}
		out = append(out, AgentSummary{Agent: s.Agent, Ships: ships, Timestamp: s.Timestamp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}
