package traders

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPageLimit is the largest page size the API accepts.
const DefaultPageLimit = 20

func shipPath(ship, suffix string) string {
	return "/my/ships/" + url.PathEscape(ship) + suffix
}

func waypointPath(system, waypoint, suffix string) string {
	return "/systems/" + url.PathEscape(system) + "/waypoints/" + url.PathEscape(waypoint) + suffix
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(page, 1)))
	q.Set("limit", strconv.Itoa(min(max(limit, 1), DefaultPageLimit)))
	return "?" + q.Encode()
}

// Status returns the server status. The response is not enveloped.
func (c *Client) Status(ctx context.Context) (*ServerStatus, error) {
	_, raw, err := c.request(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	var s ServerStatus
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("GET /: decoding status: %w", err)
	}
	return &s, nil
}

// MyAgent returns the authenticated agent.
func (c *Client) MyAgent(ctx context.Context) (*Agent, error) {
	a, _, err := call[Agent](ctx, c, http.MethodGet, "/my/agent", nil)
	return a, err
}

// MyShips returns one page of the agent's ships.
func (c *Client) MyShips(ctx context.Context, page, limit int) ([]Ship, Meta, error) {
	ships, meta, err := call[[]Ship](ctx, c, http.MethodGet, "/my/ships"+pageQuery(page, limit), nil)
	if err != nil {
		return nil, Meta{}, err
	}
	return *ships, derefMeta(meta), nil
}

// MyShip returns a single ship.
func (c *Client) MyShip(ctx context.Context, ship string) (*Ship, error) {
	s, _, err := call[Ship](ctx, c, http.MethodGet, shipPath(ship, ""), nil)
	return s, err
}

// ShipNav returns the ship's navigation state.
func (c *Client) ShipNav(ctx context.Context, ship string) (*ShipNav, error) {
	n, _, err := call[ShipNav](ctx, c, http.MethodGet, shipPath(ship, "/nav"), nil)
	return n, err
}

// ShipCooldown returns the active cooldown, or nil when there is none.
func (c *Client) ShipCooldown(ctx context.Context, ship string) (*Cooldown, error) {
	path := shipPath(ship, "/cooldown")
	status, raw, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	data, _, err := unwrap(http.MethodGet, path, raw)
	if err != nil {
		return nil, err
	}
	var cd Cooldown
	if err := json.Unmarshal(data, &cd); err != nil {
		return nil, fmt.Errorf("GET %s: decoding data: %w", path, err)
	}
	return &cd, nil
}

type navHolder struct {
	Nav ShipNav `json:"nav"`
}

// OrbitShip moves a docked ship into orbit.
func (c *Client) OrbitShip(ctx context.Context, ship string) (*ShipNav, error) {
	h, _, err := call[navHolder](ctx, c, http.MethodPost, shipPath(ship, "/orbit"), nil)
	if err != nil {
		return nil, err
	}
	return &h.Nav, nil
}

// DockShip docks an orbiting ship.
func (c *Client) DockShip(ctx context.Context, ship string) (*ShipNav, error) {
	h, _, err := call[navHolder](ctx, c, http.MethodPost, shipPath(ship, "/dock"), nil)
	if err != nil {
		return nil, err
	}
	return &h.Nav, nil
}

// NavigateShip flies an orbiting ship to a waypoint in the same system.
func (c *Client) NavigateShip(ctx context.Context, ship, waypoint string) (*NavigateResult, error) {
	body := map[string]string{"waypointSymbol": waypoint}
	r, _, err := call[NavigateResult](ctx, c, http.MethodPost, shipPath(ship, "/navigate"), body)
	return r, err
}

// RefuelShip fills the tank of a docked ship.
func (c *Client) RefuelShip(ctx context.Context, ship string) (*RefuelResult, error) {
	r, _, err := call[RefuelResult](ctx, c, http.MethodPost, shipPath(ship, "/refuel"), nil)
	return r, err
}

// ExtractResources mines at the ship's current waypoint.
func (c *Client) ExtractResources(ctx context.Context, ship string) (*ExtractResult, error) {
	r, _, err := call[ExtractResult](ctx, c, http.MethodPost, shipPath(ship, "/extract"), nil)
	return r, err
}

// SellCargo sells units of a good at the docked ship's market.
func (c *Client) SellCargo(ctx context.Context, ship, symbol string, units int) (*SellResult, error) {
	body := struct {
		Symbol string `json:"symbol"`
		Units  int    `json:"units"`
	}{symbol, units}
	r, _, err := call[SellResult](ctx, c, http.MethodPost, shipPath(ship, "/sell"), body)
	return r, err
}

// ShipCargo returns the ship's hold.
func (c *Client) ShipCargo(ctx context.Context, ship string) (*ShipCargo, error) {
	r, _, err := call[ShipCargo](ctx, c, http.MethodGet, shipPath(ship, "/cargo"), nil)
	return r, err
}

// CreateShipScan scans for ships near the ship's waypoint.
func (c *Client) CreateShipScan(ctx context.Context, ship string) (*ScanResult, error) {
	r, _, err := call[ScanResult](ctx, c, http.MethodPost, shipPath(ship, "/scan/ships"), nil)
	return r, err
}

// Systems returns one page of the galaxy's systems.
func (c *Client) Systems(ctx context.Context, page, limit int) ([]System, Meta, error) {
	systems, meta, err := call[[]System](ctx, c, http.MethodGet, "/systems"+pageQuery(page, limit), nil)
	if err != nil {
		return nil, Meta{}, err
	}
	return *systems, derefMeta(meta), nil
}

// System returns a star system. Responses are cached.
func (c *Client) System(ctx context.Context, symbol string) (*System, error) {
	return cached[System](ctx, c, "/systems/"+url.PathEscape(symbol))
}

// Waypoint returns a waypoint. Responses are cached.
func (c *Client) Waypoint(ctx context.Context, system, waypoint string) (*Waypoint, error) {
	return cached[Waypoint](ctx, c, waypointPath(system, waypoint, ""))
}

// Market returns a waypoint's marketplace.
func (c *Client) Market(ctx context.Context, system, waypoint string) (*Market, error) {
	m, _, err := call[Market](ctx, c, http.MethodGet, waypointPath(system, waypoint, "/market"), nil)
	return m, err
}

// Shipyard returns a waypoint's shipyard.
func (c *Client) Shipyard(ctx context.Context, system, waypoint string) (*Shipyard, error) {
	s, _, err := call[Shipyard](ctx, c, http.MethodGet, waypointPath(system, waypoint, "/shipyard"), nil)
	return s, err
}

// JumpGate returns a jump gate's connections. Responses are cached.
func (c *Client) JumpGate(ctx context.Context, system, waypoint string) (*JumpGate, error) {
	return cached[JumpGate](ctx, c, waypointPath(system, waypoint, "/jump-gate"))
}

func derefMeta(m *Meta) Meta {
	if m == nil {
		return Meta{}
	}
	return *m
}
