package traders

import "time"

// Nav statuses.
const (
	StatusInTransit = "IN_TRANSIT"
	StatusInOrbit   = "IN_ORBIT"
	StatusDocked    = "DOCKED"
)

// WaypointTypeJumpGate is the waypoint type of jump gates.
const WaypointTypeJumpGate = "JUMP_GATE"

// Meta is the pagination block of list responses.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pages returns the number of pages implied by Total and Limit.
func (m Meta) Pages() int {
	if m.Limit <= 0 {
		return 0
	}
	return (m.Total + m.Limit - 1) / m.Limit
}

// ServerStatus is returned by the API root.
type ServerStatus struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	ResetDate   string `json:"resetDate"`
	Description string `json:"description"`
	Stats       struct {
		Agents    int `json:"agents"`
		Ships     int `json:"ships"`
		Systems   int `json:"systems"`
		Waypoints int `json:"waypoints"`
	} `json:"stats"`
	Leaderboards struct {
		MostCredits []struct {
			AgentSymbol string `json:"agentSymbol"`
			Credits     int64  `json:"credits"`
		} `json:"mostCredits"`
		MostSubmittedCharts []struct {
			AgentSymbol string `json:"agentSymbol"`
			ChartCount  int    `json:"chartCount"`
		} `json:"mostSubmittedCharts"`
	} `json:"leaderboards"`
	ServerResets struct {
		Next      time.Time `json:"next"`
		Frequency string    `json:"frequency"`
	} `json:"serverResets"`
}

// Agent is the player's agent.
type Agent struct {
	AccountID       string `json:"accountId"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int64  `json:"credits"`
	StartingFaction string `json:"startingFaction"`
	ShipCount       int    `json:"shipCount"`
}

// Registration identifies a ship's owner and role.
type Registration struct {
	Name          string `json:"name"`
	FactionSymbol string `json:"factionSymbol"`
	Role          string `json:"role"`
}

// RouteWaypoint is one end of a ship's route.
type RouteWaypoint struct {
	Symbol       string `json:"symbol"`
	Type         string `json:"type"`
	SystemSymbol string `json:"systemSymbol"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

// ShipRoute is the current or last flight of a ship.
type ShipRoute struct {
	Destination   RouteWaypoint `json:"destination"`
	Departure     RouteWaypoint `json:"departure"`
	DepartureTime time.Time     `json:"departureTime"`
	Arrival       time.Time     `json:"arrival"`
}

// FlightTime is the total duration of the route.
func (r ShipRoute) FlightTime() time.Duration {
	return r.Arrival.Sub(r.DepartureTime)
}

// ShipNav is a ship's navigation state.
type ShipNav struct {
	SystemSymbol   string    `json:"systemSymbol"`
	WaypointSymbol string    `json:"waypointSymbol"`
	Route          ShipRoute `json:"route"`
	Status         string    `json:"status"`
	FlightMode     string    `json:"flightMode"`
}

// ShipFuel is a ship's fuel tank.
type ShipFuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
	Consumed struct {
		Amount    int       `json:"amount"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"consumed"`
}

// CargoItem is one stack in the hold.
type CargoItem struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Units       int    `json:"units"`
}

// ShipCargo is a ship's hold.
type ShipCargo struct {
	Capacity  int         `json:"capacity"`
	Units     int         `json:"units"`
	Inventory []CargoItem `json:"inventory"`
}

// Full reports whether the hold is at capacity.
func (c ShipCargo) Full() bool {
	return c.Capacity > 0 && c.Units >= c.Capacity
}

// Held returns the units of symbol in the hold.
func (c ShipCargo) Held(symbol string) int {
	for _, item := range c.Inventory {
		if item.Symbol == symbol {
			return item.Units
		}
	}
	return 0
}

// Ship is one of the player's ships.
type Ship struct {
	Symbol       string       `json:"symbol"`
	Registration Registration `json:"registration"`
	Nav          ShipNav      `json:"nav"`
	Fuel         ShipFuel     `json:"fuel"`
	Cargo        ShipCargo    `json:"cargo"`
}

// ScannedShip is another player's ship seen by a scan.
type ScannedShip struct {
	Symbol       string       `json:"symbol"`
	Registration Registration `json:"registration"`
	Nav          ShipNav      `json:"nav"`
}

// Cooldown is the reactor cooldown after an extraction, scan or jump.
type Cooldown struct {
	ShipSymbol       string    `json:"shipSymbol"`
	TotalSeconds     int       `json:"totalSeconds"`
	RemainingSeconds int       `json:"remainingSeconds"`
	Expiration       time.Time `json:"expiration"`
}

// Extraction is the result of mining.
type Extraction struct {
	ShipSymbol string `json:"shipSymbol"`
	Yield      struct {
		Symbol string `json:"symbol"`
		Units  int    `json:"units"`
	} `json:"yield"`
}

// ExtractResult is returned by ExtractResources.
type ExtractResult struct {
	Cooldown   Cooldown   `json:"cooldown"`
	Extraction Extraction `json:"extraction"`
	Cargo      ShipCargo  `json:"cargo"`
}

// MarketTransaction records a sale or purchase.
type MarketTransaction struct {
	WaypointSymbol string    `json:"waypointSymbol"`
	ShipSymbol     string    `json:"shipSymbol"`
	TradeSymbol    string    `json:"tradeSymbol"`
	Type           string    `json:"type"`
	Units          int       `json:"units"`
	PricePerUnit   int64     `json:"pricePerUnit"`
	TotalPrice     int64     `json:"totalPrice"`
	Timestamp      time.Time `json:"timestamp"`
}

// SellResult is returned by SellCargo.
type SellResult struct {
	Agent       Agent             `json:"agent"`
	Cargo       ShipCargo         `json:"cargo"`
	Transaction MarketTransaction `json:"transaction"`
}

// NavigateResult is returned by NavigateShip.
type NavigateResult struct {
	Fuel ShipFuel `json:"fuel"`
	Nav  ShipNav  `json:"nav"`
}

// RefuelResult is returned by RefuelShip.
type RefuelResult struct {
	Agent       Agent             `json:"agent"`
	Fuel        ShipFuel          `json:"fuel"`
	Transaction MarketTransaction `json:"transaction"`
}

// ScanResult is returned by CreateShipScan.
type ScanResult struct {
	Cooldown Cooldown      `json:"cooldown"`
	Ships    []ScannedShip `json:"ships"`
}

// SymbolRef is a bare {"symbol": ...} object.
type SymbolRef struct {
	Symbol string `json:"symbol"`
}

// SystemWaypoint is the waypoint summary embedded in a system.
type SystemWaypoint struct {
	Symbol   string      `json:"symbol"`
	Type     string      `json:"type"`
	X        int         `json:"x"`
	Y        int         `json:"y"`
	Orbitals []SymbolRef `json:"orbitals"`
}

// System is a star system.
type System struct {
	Symbol       string           `json:"symbol"`
	SectorSymbol string           `json:"sectorSymbol"`
	Type         string           `json:"type"`
	X            int              `json:"x"`
	Y            int              `json:"y"`
	Waypoints    []SystemWaypoint `json:"waypoints"`
	Factions     []SymbolRef      `json:"factions"`
}

// Faction returns the first controlling faction, or "".
func (s System) Faction() string {
	if len(s.Factions) == 0 {
		return ""
	}
	return s.Factions[0].Symbol
}

// Trait is a waypoint trait such as MARKETPLACE.
type Trait struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Waypoint traits of interest.
const (
	TraitMarketplace = "MARKETPLACE"
	TraitShipyard    = "SHIPYARD"
)

// Waypoint is a full waypoint record.
type Waypoint struct {
	Symbol       string      `json:"symbol"`
	Type         string      `json:"type"`
	SystemSymbol string      `json:"systemSymbol"`
	X            int         `json:"x"`
	Y            int         `json:"y"`
	Orbitals     []SymbolRef `json:"orbitals"`
	Faction      *SymbolRef  `json:"faction,omitempty"`
	Traits       []Trait     `json:"traits"`
}

// FactionSymbol returns the controlling faction, or "".
func (w Waypoint) FactionSymbol() string {
	if w.Faction == nil {
		return ""
	}
	return w.Faction.Symbol
}

// HasTrait reports whether the waypoint has the given trait.
func (w Waypoint) HasTrait(symbol string) bool {
	for _, t := range w.Traits {
		if t.Symbol == symbol {
			return true
		}
	}
	return false
}

// TradeGood is a good listed by a market.
type TradeGood struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MarketTradeGood carries prices, visible only with a ship present.
type MarketTradeGood struct {
	Symbol        string `json:"symbol"`
	TradeVolume   int    `json:"tradeVolume"`
	Supply        string `json:"supply"`
	PurchasePrice int64  `json:"purchasePrice"`
	SellPrice     int64  `json:"sellPrice"`
}

// Market is a waypoint marketplace.
type Market struct {
	Symbol       string              `json:"symbol"`
	Exports      []TradeGood         `json:"exports"`
	Imports      []TradeGood         `json:"imports"`
	Exchange     []TradeGood         `json:"exchange"`
	Transactions []MarketTransaction `json:"transactions,omitempty"`
	TradeGoods   []MarketTradeGood   `json:"tradeGoods,omitempty"`
}

// Shipyard is a waypoint shipyard.
type Shipyard struct {
	Symbol    string `json:"symbol"`
	ShipTypes []struct {
		Type string `json:"type"`
	} `json:"shipTypes"`
	Ships []struct {
		Type          string `json:"type"`
		Name          string `json:"name"`
		PurchasePrice int64  `json:"purchasePrice"`
	} `json:"ships,omitempty"`
}

// ConnectedSystem is a destination reachable through a jump gate.
type ConnectedSystem struct {
	Symbol        string `json:"symbol"`
	SectorSymbol  string `json:"sectorSymbol"`
	Type          string `json:"type"`
	FactionSymbol string `json:"factionSymbol"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Distance      int    `json:"distance"`
}

// JumpGate lists the systems connected to a gate.
type JumpGate struct {
	JumpRange        int               `json:"jumpRange"`
	FactionSymbol    string            `json:"factionSymbol"`
	ConnectedSystems []ConnectedSystem `json:"connectedSystems"`
}
