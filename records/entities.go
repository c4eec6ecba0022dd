package records

import (
	"context"
	"errors"

	"github.com/kwv/starchart/chart"
	"github.com/kwv/starchart/traders"
)

// SystemEntity converts a system into a chart entity owned by its first faction.
func SystemEntity(s traders.System) chart.Entity {
	return chart.Entity{
		Symbol: s.Symbol,
		X:      float64(s.X),
		Y:      float64(s.Y),
		Type:   s.Type,
		Owner:  s.Faction(),
	}
}

// GalaxyEntities returns every stored system as a chart entity.
func (c *Catalog) GalaxyEntities(ctx context.Context) ([]chart.Entity, error) {
	systems, err := c.store.AllSystems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]chart.Entity, len(systems))
	for i, s := range systems {
		out[i] = SystemEntity(s)
	}
	return out, nil
}

// SystemEntities returns the system and its waypoints as chart entities.
// Waypoint owners come from stored waypoint records; waypoints never
// fetched in full are unowned.
func (c *Catalog) SystemEntities(ctx context.Context, symbol string) (chart.Entity, []chart.Entity, error) {
	rec, err := c.SystemRecord(ctx, symbol, false)
	if err != nil {
		return chart.Entity{}, nil, err
	}

	waypoints := make([]chart.Entity, 0, len(rec.Data.Waypoints))
	for _, wp := range rec.Data.Waypoints {
		e := chart.Entity{
			Symbol: wp.Symbol,
			X:      float64(wp.X),
			Y:      float64(wp.Y),
			Type:   wp.Type,
		}
		full, err := c.store.FindWaypoint(ctx, symbol, wp.Symbol)
		switch {
		case err == nil:
			e.Owner = full.Data.FactionSymbol()
		case !errors.Is(err, ErrNotFound):
			return chart.Entity{}, nil, err
		}
		waypoints = append(waypoints, e)
	}
	return SystemEntity(rec.Data), waypoints, nil
}
