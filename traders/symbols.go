package traders

import (
	"fmt"
	"strings"
	"time"
)

// Location is a waypoint symbol split into its parts, e.g. X1-DF55-20250Z.
type Location struct {
	Sector   string
	System   string
	Waypoint string
}

// SystemSymbol returns "SECTOR-SYSTEM".
func (l Location) SystemSymbol() string {
	return l.Sector + "-" + l.System
}

// WaypointSymbol returns the full waypoint symbol.
func (l Location) WaypointSymbol() string {
	return l.SystemSymbol() + "-" + l.Waypoint
}

// SplitLocationSymbol splits a system or waypoint symbol on dashes.
// Missing parts are left empty.
func SplitLocationSymbol(symbol string) Location {
	parts := strings.SplitN(symbol, "-", 3)
	var l Location
	l.Sector = parts[0]
	if len(parts) > 1 {
		l.System = parts[1]
	}
	if len(parts) > 2 {
		l.Waypoint = parts[2]
	}
	return l
}

// SystemOf returns the system part of a waypoint symbol.
func SystemOf(waypoint string) string {
	return SplitLocationSymbol(waypoint).SystemSymbol()
}

// ShipSymbol is a ship symbol split into agent name and hull number.
type ShipSymbol struct {
	AgentName string
	Number    string
}

// SplitShipSymbol splits "AGENT-1A" at the last dash. Agent names may
// themselves contain dashes.
func SplitShipSymbol(symbol string) ShipSymbol {
	i := strings.LastIndex(symbol, "-")
	if i < 0 {
		return ShipSymbol{AgentName: symbol}
	}
	return ShipSymbol{AgentName: symbol[:i], Number: symbol[i+1:]}
}

// ShortFlightMode abbreviates DRIFT, STEALTH, CRUISE and BURN to two letters.
func ShortFlightMode(mode string) string {
	if len(mode) <= 2 {
		return mode
	}
	return mode[:2]
}

// FormatHMS renders d as HH:MM:SS.mmmm. Negative durations format as zero.
func FormatHMS(d time.Duration) string {
	ms := max(d.Milliseconds(), 0)
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%04d", secs/3600, secs%3600/60, secs%60, ms%1000)
}

// FormatDHMS renders d as D:HH:MM:SS.mmmm.
func FormatDHMS(d time.Duration) string {
	ms := max(d.Milliseconds(), 0)
	secs := ms / 1000
	days := secs / 86400
	secs %= 86400
	return fmt.Sprintf("%d:%02d:%02d:%02d.%04d", days, secs/3600, secs%3600/60, secs%60, ms%1000)
}

// TimeRemaining returns how long until the route arrives, negative once arrived.
func TimeRemaining(route ShipRoute, now time.Time) time.Duration {
	return route.Arrival.Sub(now)
}
