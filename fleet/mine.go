package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/kwv/starchart/traders"
)

// ErrStillFull stops a mining task whose hold could not be emptied.
var ErrStillFull = errors.New("cargo still full after selling")

// MineState is a phase of the extract/sell loop.
type MineState int

const (
	Orbiting MineState = iota
	Navigating
	Extracting
	Docked
	Selling
	Done
)

func (s MineState) String() string {
	switch s {
	case Orbiting:
		return "orbiting"
	case Navigating:
		return "navigating"
	case Extracting:
		return "extracting"
	case Docked:
		return "docked"
	case Selling:
		return "selling"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("MineState(%d)", int(s))
	}
}

// MineTask mines at one waypoint and sells at another until stopped.
type MineTask struct {
	Ship         *traders.Ship
	MineWaypoint string
	SellWaypoint string
	Plan         SellPlan

	State  MineState
	Earned int64

	pilot *Pilot
}

// NewMineTask starts in Orbiting. A nil plan uses DefaultSellPlan.
func NewMineTask(pilot *Pilot, ship *traders.Ship, mine, sell string, plan SellPlan) *MineTask {
	if plan == nil {
		plan = DefaultSellPlan()
	}
	return &MineTask{
		Ship:         ship,
		MineWaypoint: mine,
		SellWaypoint: sell,
		Plan:         plan,
		State:        Orbiting,
		pilot:        pilot,
	}
}

// Name identifies the task in logs.
func (t *MineTask) Name() string {
	return "mine/" + t.Ship.Symbol
}

// target is where the ship should head next given its hold.
func (t *MineTask) target() string {
	if t.Ship.Cargo.Full() {
		return t.SellWaypoint
	}
	return t.MineWaypoint
}

// afterArrival picks the phase for a ship that is in orbit at its target.
func (t *MineTask) afterArrival() MineState {
	if t.Ship.Nav.WaypointSymbol != t.target() {
		return Navigating
	}
	if t.Ship.Cargo.Full() {
		return Docked
	}
	return Extracting
}

// Step advances exactly one phase. It reports true once the task is Done.
func (t *MineTask) Step(ctx context.Context) (bool, error) {
	p := t.pilot
	ship := t.Ship

	switch t.State {
	case Orbiting:
		if err := p.Orbit(ctx, ship); err != nil {
			return false, err
		}
		p.Logger.Info("Orbiting", "ship", ship.Symbol, "waypoint", ship.Nav.WaypointSymbol)
		t.State = t.afterArrival()

	case Navigating:
		if err := p.Navigate(ctx, ship, t.target()); err != nil {
			return false, err
		}
		t.State = t.afterArrival()

	case Extracting:
		res, err := p.API.ExtractResources(ctx, ship.Symbol)
		if err != nil {
			return false, fmt.Errorf("extract with %s: %w", ship.Symbol, err)
		}
		ship.Cargo = res.Cargo
		p.Logger.Info("Extracted",
			"ship", ship.Symbol,
			"good", res.Extraction.Yield.Symbol,
			"units", res.Extraction.Yield.Units,
			"cargo", fmt.Sprintf("%d/%d", ship.Cargo.Units, ship.Cargo.Capacity),
		)
		if err := p.WaitForCooldown(ctx, res.Cooldown); err != nil {
			return false, err
		}
		if ship.Cargo.Full() {
			t.State = t.afterArrival()
		}

	case Docked:
		if err := p.Dock(ctx, ship); err != nil {
			return false, err
		}
		t.State = Selling

	case Selling:
		sum, err := p.SellCargo(ctx, ship, t.Plan)
		if err != nil {
			return false, err
		}
		t.Earned += sum.Total
		if ship.Cargo.Full() {
			p.Logger.Error("Still full after selling, stopping", "ship", ship.Symbol)
			t.State = Done
			return true, fmt.Errorf("%s: %w", ship.Symbol, ErrStillFull)
		}
		t.State = Orbiting

	case Done:
		return true, nil
	}

	p.Logger.Debug("Step", "task", t.Name(), "next", t.State)
	return t.State == Done, nil
}
