package records

import (
	"context"
	"errors"
	"time"

	"github.com/kwv/starchart/traders"
)

// Collection names.
const (
	CollectionAgent    = "Agent"
	CollectionShipScan = "ShipScan"
	CollectionSystem   = "System"
	CollectionWaypoint = "Waypoint"
)

// ErrNotFound is returned by Find* when no record matches.
var ErrNotFound = errors.New("record not found")

// Record wraps game data with retrieval timestamps.
type Record[T any] struct {
	ID             string    `bson:"_id" json:"id"`
	FirstRetrieved time.Time `bson:"firstRetrieved" json:"firstRetrieved"`
	LastRetrieved  time.Time `bson:"lastRetrieved" json:"lastRetrieved"`
	Data           T         `bson:"data" json:"data"`
}

type (
	SystemRecord   = Record[traders.System]
	WaypointRecord = Record[traders.Waypoint]
)

// AgentRecord tracks when another agent's ships were first and last seen.
type AgentRecord struct {
	ID        string    `bson:"_id" json:"id"`
	Symbol    string    `bson:"symbol" json:"symbol"`
	FirstSeen time.Time `bson:"firstSeen" json:"firstSeen"`
	LastSeen  time.Time `bson:"lastSeen" json:"lastSeen"`
}

// ShipScan is one scan result as stored.
type ShipScan struct {
	ID         string                `bson:"_id" json:"id"`
	Time       time.Time             `bson:"time" json:"time"`
	Scanner    string                `bson:"scanner" json:"scanner"`
	ScanOrigin string                `bson:"scanOrigin" json:"scanOrigin"`
	ScanData   []traders.ScannedShip `bson:"scanData" json:"scanData"`
}

// Store persists game records.
type Store interface {
	FindSystem(ctx context.Context, symbol string) (*SystemRecord, error)
	// UpsertSystem inserts or refreshes a system, keeping FirstRetrieved.
	UpsertSystem(ctx context.Context, system traders.System, now time.Time) (*SystemRecord, error)
	AllSystems(ctx context.Context) ([]traders.System, error)

	FindWaypoint(ctx context.Context, system, waypoint string) (*WaypointRecord, error)
	UpsertWaypoint(ctx context.Context, waypoint traders.Waypoint, now time.Time) (*WaypointRecord, error)

	FindAgent(ctx context.Context, symbol string) (*AgentRecord, error)
	// UpsertAgentSighting records a sighting and reports whether the agent is new.
	UpsertAgentSighting(ctx context.Context, symbol string, seen time.Time) (*AgentRecord, bool, error)
	AllAgents(ctx context.Context) ([]AgentRecord, error)

	InsertScan(ctx context.Context, scan ShipScan) error

	Close(ctx context.Context) error
}
