package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwv/starchart/config"
	"github.com/kwv/starchart/fleet"
	"github.com/kwv/starchart/traders"
)

func (c *cli) agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "agents",
		Short:   "List other agents seen by ship scans",
		GroupID: "loops",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			seen := app.Tracker.Snapshot()
			rows := make([][]string, 0, len(seen))
			for _, s := range seen {
				rows = append(rows, []string{s.Symbol, s.FirstSeen.Format(time.RFC3339), s.LastSeen.Format(time.RFC3339)})
			}
			fmt.Fprintf(c.stdout, "%d agents seen\n", len(seen))
			return writeTable(c.stdout, []string{"Agent", "First seen", "Last seen"}, rows)
		},
	}
}

// stopped treats cancellation by signal as a clean exit for loops.
func stopped(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *cli) scanCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:     "scan <ship>",
		Short:   "Scan for other ships until interrupted",
		GroupID: "loops",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			if err := app.ConnectRelay(); err != nil {
				return err
			}

			scanner := &fleet.Scanner{
				Pilot:   app.Pilot(),
				Store:   app.Store,
				Tracker: app.Tracker,
				Ship:    args[0],
				OnReport: func(r fleet.ScanReport) {
					fmt.Fprintf(c.stdout, "%s %s: %d ships, %d new agents\n",
						r.Time.Format("15:04:05"), r.Origin, len(r.Ships), len(r.NewAgents))
				},
			}
			if app.Publisher != nil {
				scanner.Publisher = app.Publisher
			}

			if once {
				ship, err := app.Client.MyShip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = scanner.ScanOnce(cmd.Context(), ship.Nav.WaypointSymbol)
				return err
			}
			return stopped(scanner.Run(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "scan a single time and exit")
	return cmd
}

func (c *cli) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "mine <mine-waypoint> <sell-waypoint> <ship>...",
		Short:   "Extract and sell with one or more ships until interrupted",
		GroupID: "loops",
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.agentApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pilot := app.Pilot()

			tasks := make([]fleet.Task, 0, len(args)-2)
			mines := make([]*fleet.MineTask, 0, len(args)-2)
			for _, symbol := range args[2:] {
				ship, err := app.Client.MyShip(ctx, symbol)
				if err != nil {
					return err
				}
				if ship.Nav.SystemSymbol != traders.SystemOf(args[0]) {
					return fmt.Errorf("%s is in %s, not %s", symbol, ship.Nav.SystemSymbol, traders.SystemOf(args[0]))
				}
				t := fleet.NewMineTask(pilot, ship, args[0], args[1], nil)
				tasks = append(tasks, t)
				mines = append(mines, t)
			}

			err = fleet.NewScheduler(app.Logger).Run(ctx, tasks...)
			for _, t := range mines {
				fmt.Fprintf(c.stdout, "%s earned %d (%s)\n", t.Ship.Symbol, t.Earned, t.State)
			}
			return stopped(err)
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve rendered maps and sightings over HTTP",
		GroupID: "loops",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = app.Config.HTTP.Addr
			}
			if err := app.ConnectRelay(); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), app, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serve runs the HTTP server on ln until ctx is cancelled.
func serve(ctx context.Context, app *App, ln net.Listener) error {
	srv := &http.Server{
		Handler:           newHTTPServer(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !overwrite {
				return fmt.Errorf("%s already exists; use --force to replace it", c.configPath)
			}
			if err := config.Save(c.configPath, config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, c.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "replace an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
