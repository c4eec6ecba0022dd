package fleet

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kwv/starchart/traders"
)

// ErrNotDocked is returned when selling from a ship that is not docked.
var ErrNotDocked = errors.New("ship is not docked")

// API is the subset of the game API used to fly ships.
type API interface {
	MyShip(ctx context.Context, ship string) (*traders.Ship, error)
	ShipNav(ctx context.Context, ship string) (*traders.ShipNav, error)
	ShipCooldown(ctx context.Context, ship string) (*traders.Cooldown, error)
	OrbitShip(ctx context.Context, ship string) (*traders.ShipNav, error)
	DockShip(ctx context.Context, ship string) (*traders.ShipNav, error)
	NavigateShip(ctx context.Context, ship, waypoint string) (*traders.NavigateResult, error)
	ExtractResources(ctx context.Context, ship string) (*traders.ExtractResult, error)
	SellCargo(ctx context.Context, ship, symbol string, units int) (*traders.SellResult, error)
	CreateShipScan(ctx context.Context, ship string) (*traders.ScanResult, error)
}

var _ API = (*traders.Client)(nil)

// Clock abstracts time so waits can be tested.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Sleep waits d or until ctx is done.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pilot performs multi-step ship actions.
type Pilot struct {
	API    API
	Clock  Clock
	Logger *log.Logger
}

// NewPilot returns a Pilot on the wall clock.
func NewPilot(api API, logger *log.Logger) *Pilot {
	if logger == nil {
		logger = log.Default()
	}
	return &Pilot{API: api, Clock: RealClock{}, Logger: logger}
}

// WaitForCooldown sleeps until the cooldown expires.
func (p *Pilot) WaitForCooldown(ctx context.Context, cd traders.Cooldown) error {
	left := cd.Expiration.Sub(p.Clock.Now())
	if left <= 0 {
		return nil
	}
	p.Logger.Info("In cooldown", "ship", cd.ShipSymbol, "expiry", traders.FormatHMS(left))
	return p.Clock.Sleep(ctx, left)
}

// WaitForArrival sleeps until the route arrives.
func (p *Pilot) WaitForArrival(ctx context.Context, ship string, nav traders.ShipNav) error {
	left := traders.TimeRemaining(nav.Route, p.Clock.Now())
	if left <= 0 {
		return nil
	}
	p.Logger.Info("Waiting on transit", "ship", ship, "destination", nav.Route.Destination.Symbol, "remaining", traders.FormatHMS(left))
	return p.Clock.Sleep(ctx, left)
}

// WaitForIdle waits out any transit, otherwise any reactor cooldown.
func (p *Pilot) WaitForIdle(ctx context.Context, ship string) error {
	nav, err := p.API.ShipNav(ctx, ship)
	if err != nil {
		return fmt.Errorf("wait for idle: %w", err)
	}
	if nav.Status == traders.StatusInTransit {
		if err := p.WaitForArrival(ctx, ship, *nav); err != nil {
			return err
		}
	} else {
		cd, err := p.API.ShipCooldown(ctx, ship)
		if err != nil {
			return fmt.Errorf("wait for idle: %w", err)
		}
		if cd != nil {
			if err := p.WaitForCooldown(ctx, *cd); err != nil {
				return err
			}
		}
	}
	p.Logger.Debug("Ship is idle", "ship", ship)
	return nil
}

// Orbit undocks the ship if it is docked.
func (p *Pilot) Orbit(ctx context.Context, ship *traders.Ship) error {
	if ship.Nav.Status != traders.StatusDocked {
		return nil
	}
	nav, err := p.API.OrbitShip(ctx, ship.Symbol)
	if err != nil {
		return fmt.Errorf("orbit %s: %w", ship.Symbol, err)
	}
	ship.Nav = *nav
	return nil
}

// Dock docks the ship if it is in orbit.
func (p *Pilot) Dock(ctx context.Context, ship *traders.Ship) error {
	if ship.Nav.Status != traders.StatusInOrbit {
		return nil
	}
	nav, err := p.API.DockShip(ctx, ship.Symbol)
	if err != nil {
		return fmt.Errorf("dock %s: %w", ship.Symbol, err)
	}
	ship.Nav = *nav
	p.Logger.Info("Docked", "ship", ship.Symbol, "waypoint", ship.Nav.WaypointSymbol)
	return nil
}

// Navigate flies ship to dest and waits for arrival. The ship's nav and
// fuel are updated in place; on arrival it is assumed to be in orbit.
func (p *Pilot) Navigate(ctx context.Context, ship *traders.Ship, dest string) error {
	if ship.Nav.WaypointSymbol == dest {
		p.Logger.Info("Not navigating, already at destination", "ship", ship.Symbol, "waypoint", dest)
		return nil
	}

	res, err := p.API.NavigateShip(ctx, ship.Symbol, dest)
	if err != nil {
		return fmt.Errorf("navigate %s to %s: %w", ship.Symbol, dest, err)
	}
	ship.Fuel = res.Fuel
	ship.Nav = res.Nav

	p.Logger.Info("Navigating",
		"ship", ship.Symbol,
		"waypoint", ship.Nav.Route.Destination.Symbol,
		"type", ship.Nav.Route.Destination.Type,
		"flight", traders.FormatHMS(ship.Nav.Route.FlightTime()),
		"fuel", fmt.Sprintf("%d/%d", ship.Fuel.Current, ship.Fuel.Capacity),
		"consumed", ship.Fuel.Consumed.Amount,
	)
	if err := p.WaitForArrival(ctx, ship.Symbol, ship.Nav); err != nil {
		return err
	}

	ship.Nav.Status = traders.StatusInOrbit
	ship.Nav.WaypointSymbol = dest
	return nil
}

// SellAll is the SellPlan quantity meaning "everything held".
const SellAll = -1

// SellPlan maps a trade symbol to the units to sell, or SellAll.
type SellPlan map[string]int

// DefaultSellPlan sells every ore and crystal a mining drone extracts.
func DefaultSellPlan() SellPlan {
	plan := SellPlan{}
	for _, sym := range []string{
		"IRON_ORE", "COPPER_ORE", "ALUMINUM_ORE", "SILVER_ORE", "GOLD_ORE",
		"PLATINUM_ORE", "SILICON_CRYSTALS", "ICE_WATER", "QUARTZ_SAND",
		"AMMONIA_ICE", "DIAMONDS",
	} {
		plan[sym] = SellAll
	}
	return plan
}

// SellSummary totals one SellCargo call.
type SellSummary struct {
	Transactions []traders.MarketTransaction
	Total        int64
	Credits      int64
}

// SellCargo sells the plan's goods from a docked ship, in symbol order.
// Goods not held are skipped; quantities are capped at what is held.
func (p *Pilot) SellCargo(ctx context.Context, ship *traders.Ship, plan SellPlan) (SellSummary, error) {
	var sum SellSummary
	if ship.Nav.Status != traders.StatusDocked {
		return sum, fmt.Errorf("sell from %s: %w", ship.Symbol, ErrNotDocked)
	}

	for _, sym := range slices.Sorted(maps.Keys(plan)) {
		held := ship.Cargo.Held(sym)
		if held == 0 {
			p.Logger.Debug("Nothing to sell", "ship", ship.Symbol, "good", sym)
			continue
		}
		units := held
		if want := plan[sym]; want != SellAll && want < held {
			units = want
		}
		if units <= 0 {
			continue
		}

		res, err := p.API.SellCargo(ctx, ship.Symbol, sym, units)
		if err != nil {
			return sum, fmt.Errorf("sell %s from %s: %w", sym, ship.Symbol, err)
		}
		tx := res.Transaction
		p.Logger.Info("Sold", "ship", ship.Symbol, "good", tx.TradeSymbol, "units", tx.Units, "each", tx.PricePerUnit, "total", tx.TotalPrice)

		ship.Cargo = res.Cargo
		sum.Transactions = append(sum.Transactions, tx)
		sum.Total += tx.TotalPrice
		sum.Credits = res.Agent.Credits
	}

	if len(sum.Transactions) > 0 {
		p.Logger.Info("Credits", "ship", ship.Symbol, "earned", sum.Total, "balance", sum.Credits)
	}
	return sum, nil
}
