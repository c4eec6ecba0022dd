package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kwv/starchart/traders"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "spacetraders"

// MongoStore keeps records in MongoDB, one collection per record kind.
type MongoStore struct {
	client    *mongo.Client
	systems   *mongo.Collection
	waypoints *mongo.Collection
	agents    *mongo.Collection
	scans     *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// Connect dials uri, pings the primary and ensures indexes.
// Game data is encoded through its JSON field names so stored documents
// match the API's camelCase shape.
func Connect(ctx context.Context, uri, database string, logger *log.Logger) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo: connection string is empty")
	}
	if database == "" {
		database = DefaultDatabase
	}
	if logger == nil {
		logger = log.Default()
	}

	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{UseJSONStructTags: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:    client,
		systems:   db.Collection(CollectionSystem),
		waypoints: db.Collection(CollectionWaypoint),
		agents:    db.Collection(CollectionAgent),
		scans:     db.Collection(CollectionShipScan),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Connected to database", "database", database)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.systems, mongo.IndexModel{
			Keys:    bson.D{{Key: "data.symbol", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.waypoints, mongo.IndexModel{
			Keys:    bson.D{{Key: "data.systemSymbol", Value: 1}, {Key: "data.symbol", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.agents, mongo.IndexModel{
			Keys:    bson.D{{Key: "symbol", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.scans, mongo.IndexModel{
			Keys: bson.D{{Key: "time", Value: -1}},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("mongo index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find in %s: %w", coll.Name(), err)
	}
	return &out, nil
}

// upsertData refreshes data and lastRetrieved, setting _id and
// firstRetrieved only when the document is created.
func upsertData[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, data any, now time.Time) (*Record[T], error) {
	update := bson.M{
		"$set":         bson.M{"lastRetrieved": now, "data": data},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "firstRetrieved": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec Record[T]
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		return nil, fmt.Errorf("mongo upsert in %s: %w", coll.Name(), err)
	}
	return &rec, nil
}

func (s *MongoStore) FindSystem(ctx context.Context, symbol string) (*SystemRecord, error) {
	return findOne[SystemRecord](ctx, s.systems, bson.M{"data.symbol": symbol})
}

func (s *MongoStore) UpsertSystem(ctx context.Context, system traders.System, now time.Time) (*SystemRecord, error) {
	return upsertData[traders.System](ctx, s.systems, bson.M{"data.symbol": system.Symbol}, system, now)
}

func (s *MongoStore) AllSystems(ctx context.Context) ([]traders.System, error) {
	cur, err := s.systems.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "data.symbol", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find systems: %w", err)
	}
	var recs []SystemRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("mongo read systems: %w", err)
	}
	out := make([]traders.System, len(recs))
	for i, rec := range recs {
		out[i] = rec.Data
	}
	return out, nil
}

func (s *MongoStore) FindWaypoint(ctx context.Context, system, waypoint string) (*WaypointRecord, error) {
	return findOne[WaypointRecord](ctx, s.waypoints, bson.M{
		"data.systemSymbol": system,
		"data.symbol":       waypoint,
	})
}

func (s *MongoStore) UpsertWaypoint(ctx context.Context, waypoint traders.Waypoint, now time.Time) (*WaypointRecord, error) {
	filter := bson.M{
		"data.systemSymbol": waypoint.SystemSymbol,
		"data.symbol":       waypoint.Symbol,
	}
	return upsertData[traders.Waypoint](ctx, s.waypoints, filter, waypoint, now)
}

func (s *MongoStore) FindAgent(ctx context.Context, symbol string) (*AgentRecord, error) {
	return findOne[AgentRecord](ctx, s.agents, bson.M{"symbol": symbol})
}

func (s *MongoStore) UpsertAgentSighting(ctx context.Context, symbol string, seen time.Time) (*AgentRecord, bool, error) {
	res, err := s.agents.UpdateOne(ctx,
		bson.M{"symbol": symbol},
		bson.M{
			"$set":         bson.M{"lastSeen": seen},
			"$setOnInsert": bson.M{"_id": uuid.NewString(), "firstSeen": seen},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return nil, false, fmt.Errorf("mongo upsert agent %s: %w", symbol, err)
	}
	rec, err := s.FindAgent(ctx, symbol)
	if err != nil {
		return nil, false, err
	}
	return rec, res.UpsertedCount > 0, nil
}

func (s *MongoStore) AllAgents(ctx context.Context) ([]AgentRecord, error) {
	cur, err := s.agents.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "symbol", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo find agents: %w", err)
	}
	var out []AgentRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo read agents: %w", err)
	}
	return out, nil
}

func (s *MongoStore) InsertScan(ctx context.Context, scan ShipScan) error {
	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	if _, err := s.scans.InsertOne(ctx, scan); err != nil {
		return fmt.Errorf("mongo insert scan: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
