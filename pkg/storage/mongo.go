package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/matzehuels/brickgrid/pkg/page"
)

// Default MongoDB location.
const (
	DefaultMongoDatabase   = "brickgrid"
	DefaultMongoCollection = "pages"
)

// MongoRepository stores pages in a MongoDB collection, one document per
// page with the page JSON in a string field.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoPage struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Doc       string    `bson:"doc,omitempty"`
	Bricks    int       `bson:"bricks"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// OpenMongo connects to uri and checks the connection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty connection uri")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	if collection == "" {
		collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoRepository{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Record, error) {
	var doc mongoPage
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	p, err := decode(id, doc.Doc)
	if err != nil {
		return nil, err
	}
	return &Record{Page: p, Version: doc.Version, UpdatedAt: doc.UpdatedAt}, nil
}

func (r *MongoRepository) Put(ctx context.Context, p *page.Page) (*Record, error) {
	doc, err := encode(p)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "title", Value: p.Title},
			{Key: "doc", Value: doc},
			{Key: "bricks", Value: p.Count()},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int64(1)}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "version", Value: 1}})

	var out mongoPage
	if err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: p.ID}}, update, opts).Decode(&out); err != nil {
		return nil, fmt.Errorf("put page %s: %w", p.ID, err)
	}
	return &Record{Page: p.Clone(), Version: out.Version, UpdatedAt: now}, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "doc", Value: 0}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	var docs []mongoPage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	out := make([]Summary, len(docs))
	for i, d := range docs {
		out[i] = Summary{ID: d.ID, Title: d.Title, Bricks: d.Bricks, Version: d.Version, UpdatedAt: d.UpdatedAt}
	}
	return out, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

var _ Repository = (*MongoRepository)(nil)
