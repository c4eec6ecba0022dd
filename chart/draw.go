package chart

import (
	"path/filepath"

	"github.com/charmbracelet/log"
)

// GalaxyFileName is the output name used by DrawGalaxy.
const GalaxyFileName = "galaxy.png"

// DrawGalaxy lays out and renders every system into dir/galaxy.png, plus
// dir/slice.png when the config asks for a centre crop. It returns the
// path of the main image.
func DrawGalaxy(systems []Entity, dir string, cfg RenderConfig, logger *log.Logger) (string, error) {
	cfg.Scope = ScopeGalaxy
	r := NewRenderer(cfg, logger)

	layout, err := r.Layout(systems)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, GalaxyFileName)
	if err := r.RenderFile(layout, nil, path); err != nil {
		return "", err
	}
	return path, nil
}

// DrawSystem renders the waypoints of one system into dir/<symbol>.png with
// a title band describing the system.
func DrawSystem(system Entity, waypoints []Entity, dir string, cfg RenderConfig, logger *log.Logger) (string, error) {
	cfg.Scope = ScopeSystem
	r := NewRenderer(cfg, logger)

	layout, err := r.Layout(waypoints)
	if err != nil {
		return "", err
	}

	title := SystemTitle(system, len(waypoints))
	path := filepath.Join(dir, system.Symbol+".png")
	if err := r.RenderFile(layout, &title, path); err != nil {
		return "", err
	}
	return path, nil
}

// SystemTitle builds the title band for a system render.
func SystemTitle(system Entity, waypointCount int) Title {
	return Title{
		Symbol:        system.Symbol,
		X:             system.X,
		Y:             system.Y,
		Type:          system.Type,
		WaypointCount: waypointCount,
	}
}
