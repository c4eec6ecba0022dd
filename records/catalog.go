package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kwv/starchart/traders"
)

// DefaultConcurrency bounds parallel waypoint fetches.
const DefaultConcurrency = 4

// API is the subset of the game API the catalog reads from.
type API interface {
	System(ctx context.Context, symbol string) (*traders.System, error)
	Waypoint(ctx context.Context, system, waypoint string) (*traders.Waypoint, error)
	Systems(ctx context.Context, page, limit int) ([]traders.System, traders.Meta, error)
	JumpGate(ctx context.Context, system, waypoint string) (*traders.JumpGate, error)
}

var _ API = (*traders.Client)(nil)

// Catalog serves systems and waypoints from the store, falling back to
// the API on a miss or when forced.
type Catalog struct {
	api         API
	store       Store
	logger      *log.Logger
	Concurrency int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewCatalog returns a Catalog over api and store.
func NewCatalog(api API, store Store, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.Default()
	}
	return &Catalog{
		api:         api,
		store:       store,
		logger:      logger,
		Concurrency: DefaultConcurrency,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Store returns the underlying store.
func (c *Catalog) Store() Store {
	return c.store
}

// SystemRecord returns the stored system, fetching and storing it when
// absent or when force is set.
func (c *Catalog) SystemRecord(ctx context.Context, symbol string, force bool) (*SystemRecord, error) {
	rec, err := c.store.FindSystem(ctx, symbol)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if rec != nil && !force {
		return rec, nil
	}

	sys, err := c.api.System(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch system %s: %w", symbol, err)
	}
	return c.store.UpsertSystem(ctx, *sys, c.now())
}

// WaypointRecord is SystemRecord for a single waypoint.
func (c *Catalog) WaypointRecord(ctx context.Context, system, waypoint string, force bool) (*WaypointRecord, error) {
	rec, err := c.store.FindWaypoint(ctx, system, waypoint)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if rec != nil && !force {
		return rec, nil
	}

	wp, err := c.api.Waypoint(ctx, system, waypoint)
	if err != nil {
		return nil, fmt.Errorf("fetch waypoint %s: %w", waypoint, err)
	}
	return c.store.UpsertWaypoint(ctx, *wp, c.now())
}

// SystemWaypoints returns full records for every waypoint of a system, in
// the system's listing order. Fetches run with bounded concurrency.
func (c *Catalog) SystemWaypoints(ctx context.Context, system string, force bool) ([]traders.Waypoint, error) {
	sys, err := c.SystemRecord(ctx, system, force)
	if err != nil {
		return nil, err
	}

	out := make([]traders.Waypoint, len(sys.Data.Waypoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for i, wp := range sys.Data.Waypoints {
		g.Go(func() error {
			rec, err := c.WaypointRecord(gctx, system, wp.Symbol, force)
			if err != nil {
				return err
			}
			out[i] = rec.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadAllSystems stores every system page by page starting at page,
// pausing between pages. It returns the number of systems stored.
func (c *Catalog) DownloadAllSystems(ctx context.Context, page, limit int, pause time.Duration) (int, error) {
	page = max(page, 1)
	if limit <= 0 {
		limit = traders.DefaultPageLimit
	}

	count := 0
	for {
		systems, meta, err := c.api.Systems(ctx, page, limit)
		if err != nil {
			return count, fmt.Errorf("download systems page %d: %w", page, err)
		}
		now := c.now()
		for _, sys := range systems {
			if _, err := c.store.UpsertSystem(ctx, sys, now); err != nil {
				return count, err
			}
			count++
		}
		c.logger.Info("Downloaded systems page", "page", page, "pages", meta.Pages(), "total", count)

		if len(systems) == 0 || page >= meta.Pages() {
			break
		}
		page++
		if err := c.sleep(ctx, pause); err != nil {
			return count, err
		}
	}
	c.logger.Info("Finished downloading systems", "total", count)
	return count, nil
}

// IndexJumpGates walks the jump-gate network breadth first from the gate at
// waypoint, storing each newly reached system and its waypoints. It returns
// the number of systems indexed.
func (c *Catalog) IndexJumpGates(ctx context.Context, system, waypoint string, pause time.Duration) (int, error) {
	type gate struct{ system, waypoint string }

	queue := []gate{{system, waypoint}}
	visited := map[string]bool{system: true}
	indexed := 0

	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]

		info, err := c.api.JumpGate(ctx, g.system, g.waypoint)
		if err != nil {
			return indexed, fmt.Errorf("jump gate %s: %w", g.waypoint, err)
		}

		for _, dest := range info.ConnectedSystems {
			if visited[dest.Symbol] {
				continue
			}
			visited[dest.Symbol] = true
			indexed++
			c.logger.Info("Indexing system", "system", dest.Symbol, "count", indexed)

			if _, err := c.SystemRecord(ctx, dest.Symbol, false); err != nil {
				return indexed, err
			}
			waypoints, err := c.SystemWaypoints(ctx, dest.Symbol, false)
			if err != nil {
				return indexed, err
			}
			for _, wp := range waypoints {
				if wp.Type == traders.WaypointTypeJumpGate {
					queue = append(queue, gate{wp.SystemSymbol, wp.Symbol})
				}
			}

			if err := c.sleep(ctx, pause); err != nil {
				return indexed, err
			}
		}
	}

	c.logger.Info("Finished indexing jump gates", "systems", indexed)
	return indexed, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
