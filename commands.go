package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwv/starchart/fleet"
	"github.com/kwv/starchart/traders"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show game server status",
		GroupID: "agent",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			st, err := app.Client.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s (version %s, reset %s)\n", st.Status, st.Version, st.ResetDate)
			if !st.ServerResets.Next.IsZero() {
				left := time.Until(st.ServerResets.Next)
				fmt.Fprintf(c.stdout, "next reset in %s\n", traders.FormatDHMS(left))
			}
			return writeTable(c.stdout,
				[]string{"Agents", "Ships", "Systems", "Waypoints"},
				[][]string{{itoa(st.Stats.Agents), itoa(st.Stats.Ships), itoa(st.Stats.Systems), itoa(st.Stats.Waypoints)}},
			)
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the agent behind the token",
		GroupID: "agent",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			a, err := app.Client.MyAgent(cmd.Context())
			if err != nil {
				return err
			}
			return writeTable(c.stdout,
				[]string{"Agent", "Headquarters", "Faction", "Credits", "Ships"},
				[][]string{{a.Symbol, a.Headquarters, a.StartingFaction, credits(a.Credits), itoa(a.ShipCount)}},
			)
		},
	}
}

// allShips pages through every ship the agent owns.
func allShips(ctx context.Context, client *traders.Client) ([]traders.Ship, error) {
	var ships []traders.Ship
	for page := 1; ; page++ {
		batch, meta, err := client.MyShips(ctx, page, traders.DefaultPageLimit)
		if err != nil {
			return nil, err
		}
		ships = append(ships, batch...)
		if len(batch) == 0 || page >= meta.Pages() {
			return ships, nil
		}
	}
}

func (c *cli) shipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ships",
		Short:   "List the agent's ships",
		GroupID: "agent",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			ships, err := allShips(cmd.Context(), app.Client)
			if err != nil {
				return err
			}
			return writeTable(c.stdout,
				[]string{"Ship", "Role", "Status", "Waypoint", "Mode", "Fuel", "Cargo", "ETA"},
				shipRows(ships, time.Now()),
			)
		},
	}
}

func (c *cli) cargoCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cargo <ship>",
		Short:   "Show a ship's hold",
		GroupID: "agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			cargo, err := app.Client.ShipCargo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s cargo %s\n", args[0], ratio(cargo.Units, cargo.Capacity))
			return writeTable(c.stdout, []string{"Good", "Name", "Units"}, cargoRows(*cargo))
		},
	}
}

// navCmd builds dock and orbit, which differ only in the endpoint called.
func (c *cli) navCmd(use, short string, do func(*traders.Client, context.Context, string) (*traders.ShipNav, error)) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <ship>",
		Short:   short,
		GroupID: "agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			nav, err := do(app.Client, cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s %s at %s\n", args[0], nav.Status, nav.WaypointSymbol)
			return nil
		},
	}
}

func (c *cli) dockCmd() *cobra.Command {
	return c.navCmd("dock", "Dock a ship at its waypoint", (*traders.Client).DockShip)
}

func (c *cli) orbitCmd() *cobra.Command {
	return c.navCmd("orbit", "Move a ship into orbit", (*traders.Client).OrbitShip)
}

func (c *cli) refuelCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "refuel <ship>",
		Short:   "Refuel a docked ship",
		GroupID: "agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			res, err := app.Client.RefuelShip(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s fuel %s, paid %d, credits %d\n",
				args[0], ratio(res.Fuel.Current, res.Fuel.Capacity), res.Transaction.TotalPrice, res.Agent.Credits)
			return nil
		},
	}
}

func (c *cli) navigateCmd() *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:     "navigate <ship> <waypoint>",
		Short:   "Fly a ship to a waypoint in its system",
		GroupID: "agent",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if noWait {
				res, err := app.Client.NavigateShip(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				left := traders.TimeRemaining(res.Nav.Route, time.Now())
				fmt.Fprintf(c.stdout, "%s arriving at %s in %s\n", args[0], args[1], traders.FormatHMS(left))
				return nil
			}

			ship, err := app.Client.MyShip(ctx, args[0])
			if err != nil {
				return err
			}
			pilot := app.Pilot()
			if err := pilot.Orbit(ctx, ship); err != nil {
				return err
			}
			if err := pilot.Navigate(ctx, ship, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s at %s, fuel %s\n", ship.Symbol, ship.Nav.WaypointSymbol, ratio(ship.Fuel.Current, ship.Fuel.Capacity))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return once the ship has departed")
	return cmd
}

func (c *cli) sellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <ship> [<good> <units>]...",
		Short: "Sell cargo at the ship's market",
		Long: "Sell the listed goods, or every ore in the default plan when none are given. " +
			"Units of -1 sell everything held.",
		GroupID: "agent",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 1 {
				return errors.New("expected a ship followed by <good> <units> pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := parseSellPlan(args[1:])
			if err != nil {
				return err
			}
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ship, err := app.Client.MyShip(ctx, args[0])
			if err != nil {
				return err
			}
			sum, err := app.Pilot().SellCargo(ctx, ship, plan)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(sum.Transactions))
			for _, tx := range sum.Transactions {
				rows = append(rows, []string{tx.TradeSymbol, itoa(tx.Units), credits(tx.PricePerUnit), credits(tx.TotalPrice)})
			}
			if err := writeTable(c.stdout, []string{"Good", "Units", "Price", "Total"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "earned %d, credits %d\n", sum.Total, sum.Credits)
			return nil
		},
	}
}

// parseSellPlan turns "GOOD UNITS" pairs into a plan; no pairs means the
// default plan.
func parseSellPlan(pairs []string) (fleet.SellPlan, error) {
	if len(pairs) == 0 {
		return fleet.DefaultSellPlan(), nil
	}
	plan := make(fleet.SellPlan, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		units, err := strconv.Atoi(pairs[i+1])
		if err != nil || (units < 1 && units != fleet.SellAll) {
			return nil, fmt.Errorf("invalid units %q for %s", pairs[i+1], pairs[i])
		}
		plan[pairs[i]] = units
	}
	return plan, nil
}

// waypointArg accepts a full waypoint symbol and returns its system too.
func waypointArg(symbol string) (system, waypoint string) {
	return traders.SystemOf(symbol), symbol
}

func (c *cli) marketCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "market <waypoint>",
		Short:   "Show a marketplace",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoint := waypointArg(args[0])
			m, err := app.Client.Market(cmd.Context(), system, waypoint)
			if err != nil {
				return err
			}
			return writeTable(c.stdout, []string{"Good", "Supply", "Volume", "Buy", "Sell"}, marketRows(*m))
		},
	}
}

func (c *cli) shipyardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "shipyard <waypoint>",
		Short:   "Show the ships a shipyard sells",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoint := waypointArg(args[0])
			y, err := app.Client.Shipyard(cmd.Context(), system, waypoint)
			if err != nil {
				return err
			}
			var rows [][]string
			if len(y.Ships) > 0 {
				for _, s := range y.Ships {
					rows = append(rows, []string{s.Type, s.Name, credits(s.PurchasePrice)})
				}
			} else {
				for _, t := range y.ShipTypes {
					rows = append(rows, []string{t.Type, "-", "-"})
				}
			}
			return writeTable(c.stdout, []string{"Type", "Name", "Price"}, rows)
		},
	}
}

func (c *cli) jumpgateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "jumpgate <waypoint>",
		Short:   "List systems connected to a jump gate",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoint := waypointArg(args[0])
			g, err := app.Client.JumpGate(cmd.Context(), system, waypoint)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(g.ConnectedSystems))
			for _, s := range g.ConnectedSystems {
				rows = append(rows, []string{s.Symbol, s.Type, s.FactionSymbol, itoa(s.Distance)})
			}
			fmt.Fprintf(c.stdout, "%s range %d\n", args[0], g.JumpRange)
			return writeTable(c.stdout, []string{"System", "Type", "Faction", "Distance"}, rows)
		},
	}
}
