package fleet

import (
	"context"
	"fmt"
	"time"

	"github.com/kwv/starchart/records"
	"github.com/kwv/starchart/traders"
)

// SightingPublisher announces agent sightings, e.g. over MQTT.
type SightingPublisher interface {
	PublishSighting(agent, ship, waypoint string) error
}

// ScanReport summarises one ship scan.
type ScanReport struct {
	Time      time.Time
	Scanner   string
	Origin    string
	Ships     []traders.ScannedShip
	NewAgents []string
	Cooldown  traders.Cooldown
}

// Scanner repeatedly scans for other ships from one of ours.
type Scanner struct {
	Pilot     *Pilot
	Store     records.Store
	Tracker   *AgentTracker
	Publisher SightingPublisher // optional
	Ship      string

	// OnReport, when set, is called after every scan.
	OnReport func(ScanReport)
}

// Run orbits the scanner, then scans and waits out the cooldown until ctx
// is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	nav, err := s.Pilot.API.OrbitShip(ctx, s.Ship)
	if err != nil {
		return fmt.Errorf("orbit scanner %s: %w", s.Ship, err)
	}
	origin := nav.WaypointSymbol

	for {
		report, err := s.ScanOnce(ctx, origin)
		if err != nil {
			return err
		}
		if err := s.Pilot.WaitForCooldown(ctx, report.Cooldown); err != nil {
			return err
		}
	}
}

// ScanOnce performs a single scan, stores it and records each agent seen.
// An agent owning several ships in one scan is recorded once.
func (s *Scanner) ScanOnce(ctx context.Context, origin string) (ScanReport, error) {
	logger := s.Pilot.Logger
	res, err := s.Pilot.API.CreateShipScan(ctx, s.Ship)
	if err != nil {
		return ScanReport{}, fmt.Errorf("scan with %s: %w", s.Ship, err)
	}
	now := s.Pilot.Clock.Now()

	report := ScanReport{
		Time:     now,
		Scanner:  s.Ship,
		Origin:   origin,
		Ships:    res.Ships,
		Cooldown: res.Cooldown,
	}

	if err := s.Store.InsertScan(ctx, records.ShipScan{
		Time:       now,
		Scanner:    s.Ship,
		ScanOrigin: origin,
		ScanData:   res.Ships,
	}); err != nil {
		return report, err
	}

	seen := make(map[string]bool)
	for _, ship := range res.Ships {
		agent := traders.SplitShipSymbol(ship.Symbol).AgentName

		if s.Publisher != nil {
			if err := s.Publisher.PublishSighting(agent, ship.Symbol, ship.Nav.WaypointSymbol); err != nil {
				logger.Warn("Publish sighting failed", "agent", agent, "err", err)
			}
		}
		if seen[agent] {
			continue
		}
		seen[agent] = true

		_, created, err := s.Store.UpsertAgentSighting(ctx, agent, now)
		if err != nil {
			return report, err
		}
		isNew := s.Tracker.Seen(agent, now)
		if created || isNew {
			report.NewAgents = append(report.NewAgents, agent)
		}
	}

	logger.Info("Performed ship scan", "ship", s.Ship, "contacts", len(res.Ships), "waypoint", origin)
	if len(report.NewAgents) > 0 {
		logger.Info("New agents spotted", "agents", report.NewAgents, "total", s.Tracker.Len())
	}
	logger.Info("Next possible scan", "ship", s.Ship, "at", res.Cooldown.Expiration.Format(time.RFC3339))

	if s.OnReport != nil {
		s.OnReport(report)
	}
	return report, nil
}
