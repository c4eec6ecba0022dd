package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kwv/starchart/chart"
	"github.com/kwv/starchart/traders"
)

func (c *cli) waypointCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "waypoint <waypoint>",
		Short:   "Show a waypoint, from records when known",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoint := waypointArg(args[0])
			rec, err := app.Catalog.WaypointRecord(cmd.Context(), system, waypoint, force)
			if err != nil {
				return err
			}
			if err := writeTable(c.stdout,
				[]string{"Waypoint", "Type", "Position", "Faction", "Traits"},
				waypointRows([]traders.Waypoint{rec.Data}),
			); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "first retrieved %s, last %s\n",
				rec.FirstRetrieved.Format("2006-01-02 15:04"), rec.LastRetrieved.Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "refresh from the API")
	return cmd
}

func (c *cli) waypointsCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:     "waypoints <system>",
		Short:   "List every waypoint in a system",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			wps, err := app.Catalog.SystemWaypoints(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}
			return writeTable(c.stdout, []string{"Waypoint", "Type", "Position", "Faction", "Traits"}, waypointRows(wps))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "refresh from the API")
	return cmd
}

func (c *cli) downloadSystemsCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:     "download-systems",
		Short:   "Store every system in the galaxy",
		GroupID: "charts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = app.Config.API.PageLimit
			}
			n, err := app.Catalog.DownloadAllSystems(cmd.Context(), page, limit, app.Config.API.Pause)
			fmt.Fprintf(c.stdout, "stored %d systems\n", n)
			return err
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "first page to fetch")
	cmd.Flags().IntVar(&limit, "limit", 0, "systems per page (default from config)")
	return cmd
}

func (c *cli) indexGatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "index-gates <jump-gate-waypoint>",
		Short:   "Walk the jump gate network from a gate, storing every system reached",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoint := waypointArg(args[0])
			n, err := app.Catalog.IndexJumpGates(cmd.Context(), system, waypoint, app.Config.API.Pause)
			fmt.Fprintf(c.stdout, "indexed %d systems\n", n)
			return err
		},
	}
}

// drawOptions are shared by the draw commands.
type drawOptions struct {
	dir     string
	svg     bool
	publish bool
}

func (o *drawOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&o.svg, "svg", false, "also write an SVG")
	cmd.Flags().BoolVar(&o.publish, "publish", false, "publish the PNG over MQTT")
}

// finish writes the optional SVG and publishes the PNG.
func (c *cli) finish(app *App, o drawOptions, cfg chart.RenderConfig, entities []chart.Entity, pngPath string) error {
	if o.svg {
		svgPath := strings.TrimSuffix(pngPath, filepath.Ext(pngPath)) + ".svg"
		if err := writeSVG(svgPath, cfg, entities, app); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, svgPath)
	}
	if o.publish {
		if err := app.ConnectRelay(); err != nil {
			return err
		}
		if app.Publisher == nil {
			return errors.New("publish requested but MQTT_BROKER is not set")
		}
		data, err := os.ReadFile(pngPath)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(pngPath), filepath.Ext(pngPath))
		if err := app.Publisher.PublishMap(name, data); err != nil {
			return err
		}
	}
	return nil
}

func writeSVG(path string, cfg chart.RenderConfig, entities []chart.Entity, app *App) error {
	r := chart.NewRenderer(cfg, app.Logger)
	layout, err := r.Layout(entities)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return &chart.IOWriteError{Path: path, Err: err}
	}
	if err := r.RenderSVG(f, layout); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return &chart.IOWriteError{Path: path, Err: err}
	}
	return nil
}

func (o drawOptions) outDir(app *App) (string, error) {
	dir := o.dir
	if dir == "" {
		dir = app.Config.Render.OutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

func (c *cli) drawGalaxyCmd() *cobra.Command {
	var opts drawOptions
	cmd := &cobra.Command{
		Use:     "draw-galaxy",
		Short:   "Render every stored system with faction territory",
		GroupID: "charts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			systems, err := app.Catalog.GalaxyEntities(cmd.Context())
			if err != nil {
				return err
			}
			dir, err := opts.outDir(app)
			if err != nil {
				return err
			}
			cfg := app.Config.Render.Galaxy
			path, err := chart.DrawGalaxy(systems, dir, cfg, app.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, path)
			return c.finish(app, opts, cfg, systems, path)
		},
	}
	opts.bind(cmd)
	return cmd
}

func (c *cli) drawSystemCmd() *cobra.Command {
	var opts drawOptions
	cmd := &cobra.Command{
		Use:     "draw-system <system>",
		Short:   "Render the waypoints of one system",
		GroupID: "charts",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.appFor(cmd)
			if err != nil {
				return err
			}
			system, waypoints, err := app.Catalog.SystemEntities(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			dir, err := opts.outDir(app)
			if err != nil {
				return err
			}
			cfg := app.Config.Render.System
			path, err := chart.DrawSystem(system, waypoints, dir, cfg, app.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, path)
			return c.finish(app, opts, cfg, waypoints, path)
		},
	}
	opts.bind(cmd)
	return cmd
}
