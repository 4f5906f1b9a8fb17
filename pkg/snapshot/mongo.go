package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgerrors "github.com/pyscope/pyscope/pkg/errors"
)

const (
	defaultDatabase = "pyscope"
	collectionName  = "snapshots"
)

// MongoStore persists snapshots in a MongoDB collection, one document per
// snapshot keyed by its ID. Suited to fleets that archive snapshots
// centrally instead of on each host.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and verifies the connection.
// An empty database selects "pyscope".
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "connect to mongodb at %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "ping mongodb at %s", uri)
	}
	if database == "" {
		database = defaultDatabase
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// Save upserts the snapshot document by ID.
func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": snap.ID}, snap, options.Replace().SetUpsert(true))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "save snapshot %s", snap.ID)
	}
	return nil
}

// Load reads a snapshot back by ID.
func (s *MongoStore) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var snap Snapshot
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "snapshot %s not found", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "load snapshot %s", id)
	}
	return &snap, nil
}

// List returns stored snapshots, newest first. A non-empty pkg keeps only
// snapshots that captured that package.
func (s *MongoStore) List(ctx context.Context, pkg string) ([]*Snapshot, error) {
	filter := bson.M{}
	if pkg != "" {
		filter = bson.M{"packages.name": pkg}
	}

	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "list snapshots")
	}
	var out []*Snapshot
	if err := cur.All(ctx, &out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "decode snapshots")
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
