package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/kwv/starchart/config"
)

// errNoToken is returned by commands that act as the player's agent.
var errNoToken = errors.New("SPACETRADERS_TOKEN is not set")

// openFunc builds the App; tests replace it to inject fakes.
type openFunc func(ctx context.Context, cfg *config.Config, logger *log.Logger, opts AppOptions) (*App, error)

// cli carries flag values and the lazily opened App through the command tree.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	offline    bool

	open openFunc
	app  *App
}

// run builds the command tree, executes args and closes whatever the
// commands opened.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return runWith(ctx, args, stdout, stderr, NewApp)
}

func runWith(ctx context.Context, args []string, stdout, stderr io.Writer, open openFunc) error {
	c := &cli{stdout: stdout, stderr: stderr, open: open}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		err = errors.Join(err, c.app.Close(context.WithoutCancel(ctx)))
	}
	return err
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "starchart",
		Short:         "Charts the galaxy and flies ships for a SpaceTraders agent",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", config.DefaultPath, "path to configuration file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.offline, "offline", false, "keep records in memory instead of MongoDB")

	root.AddGroup(
		&cobra.Group{ID: "agent", Title: "Agent and ships:"},
		&cobra.Group{ID: "charts", Title: "Systems and charts:"},
		&cobra.Group{ID: "loops", Title: "Long-running:"},
	)

	root.AddCommand(
		c.statusCmd(),
		c.whoamiCmd(),
		c.shipsCmd(),
		c.cargoCmd(),
		c.dockCmd(),
		c.orbitCmd(),
		c.refuelCmd(),
		c.navigateCmd(),
		c.sellCmd(),
		c.marketCmd(),
		c.shipyardCmd(),
		c.jumpgateCmd(),
		c.waypointCmd(),
		c.waypointsCmd(),
		c.downloadSystemsCmd(),
		c.indexGatesCmd(),
		c.drawGalaxyCmd(),
		c.drawSystemCmd(),
		c.agentsCmd(),
		c.scanCmd(),
		c.mineCmd(),
		c.serveCmd(),
		c.configCmd(),
	)
	return root
}

// appFor loads configuration and opens the App on first use.
func (c *cli) appFor(cmd *cobra.Command) (*App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(c.stderr, c.verbose)
	app, err := c.open(cmd.Context(), cfg, logger, AppOptions{Offline: c.offline})
	if err != nil {
		return nil, fmt.Errorf("starting: %w", err)
	}
	c.app = app
	return app, nil
}

// agentApp is appFor for commands that need an agent token.
func (c *cli) agentApp(cmd *cobra.Command) (*App, error) {
	app, err := c.appFor(cmd)
	if err != nil {
		return nil, err
	}
	if !app.Client.HasToken() {
		return nil, errNoToken
	}
	return app, nil
}
