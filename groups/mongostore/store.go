// Package mongostore persists groups as MongoDB documents, one per group.
package mongostore

import (
	"context"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "groups"

var _ groups.Repo = (*Store)(nil)

// document is the stored shape. group_id carries the application id; _id is
// left to the server.
type document struct {
	ObjectID    primitive.ObjectID `bson:"_id,omitempty"`
	GroupID     string             `bson:"group_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Tenants     []string           `bson:"tenants"`
	Report      []reports.Result   `bson:"report"`
	ReportedAt  *time.Time         `bson:"reported_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials uri, checks the server is reachable and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, "mongostore.Connect", "connect", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.E(errors.ErrPersistence, "mongostore.Connect", "ping", err)
	}

	s := &Store{client: client, coll: client.Database(database).Collection(collectionName)}
	if err := s.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info().Str("database", database).Msg("connected to mongo group store")
	return s, nil
}

// NewWithCollection uses an existing collection; the caller owns the client.
func NewWithCollection(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "group_id", Value: 1}}},
	})
	if err != nil {
		return errors.E(errors.ErrPersistence, "mongostore.EnsureIndexes", "create_index", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) Insert(ctx context.Context, g *groups.Group) error {
	if _, err := s.coll.InsertOne(ctx, toDocument(g)); err != nil {
		cause := "insert"
		if mongo.IsDuplicateKeyError(err) {
			cause = "duplicate_id"
		}
		return errors.E(errors.ErrPersistence, "mongostore.Insert", cause, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*groups.Group, error) {
	const op = "mongostore.List"
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "group_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, op, "find", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.E(errors.ErrPersistence, op, "decode", err)
	}
	out := make([]*groups.Group, 0, len(docs))
	for i := range docs {
		out = append(out, fromDocument(&docs[i]))
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*groups.Group, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "group_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, "mongostore.Get", "find", err)
	}
	return fromDocument(&doc), nil
}

// SetReport overwrites the cached report with $set.
func (s *Store) SetReport(ctx context.Context, id string, report []reports.Result, at time.Time) error {
	if report == nil {
		report = []reports.Result{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "report", Value: report},
		{Key: "reported_at", Value: at.UTC()},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "group_id", Value: id}}, update)
	if err != nil {
		return errors.E(errors.ErrPersistence, "mongostore.SetReport", "update", err)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	return nil
}

func toDocument(g *groups.Group) document {
	doc := document{
		GroupID:     g.ID,
		Title:       g.Title,
		Description: g.Description,
		Tenants:     append([]string{}, g.Tenants...),
		Report:      append([]reports.Result{}, g.Report...),
		CreatedAt:   g.CreatedAt.UTC(),
	}
	if !g.ReportedAt.IsZero() {
		at := g.ReportedAt.UTC()
		doc.ReportedAt = &at
	}
	return doc
}

func fromDocument(doc *document) *groups.Group {
	g := &groups.Group{
		ID:          doc.GroupID,
		Title:       doc.Title,
		Description: doc.Description,
		Tenants:     doc.Tenants,
		Report:      doc.Report,
		CreatedAt:   doc.CreatedAt.UTC(),
	}
	if g.Tenants == nil {
		g.Tenants = []string{}
	}
	if g.Report == nil {
		g.Report = []reports.Result{}
	}
	if doc.ReportedAt != nil {
		g.ReportedAt = doc.ReportedAt.UTC()
	}
	return g
}
