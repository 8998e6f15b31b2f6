package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pkordes/tripboard/internal/domain"
)

// documentsCollection holds one record per document key.
const documentsCollection = "documents"

// mongoDocument is the stored record. Body is kept as a native BSON
// document so it stays queryable from the mongo shell.
type mongoDocument struct {
	Key       string    `bson:"_id"`
	Body      bson.Raw  `bson:"body"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoChangeEvent is the subset of a change stream event we read.
type mongoChangeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  *mongoDocument `bson:"fullDocument"`
}

// mongoDocumentStore is the MongoDB implementation of DocumentStore.
// Change feeds are change streams, which need a replica set deployment.
type mongoDocumentStore struct {
	coll *mongo.Collection
}

// NewMongoDocumentStore constructs a DocumentStore over the documents
// collection of database.
func NewMongoDocumentStore(database *mongo.Database) DocumentStore {
	return &mongoDocumentStore{coll: database.Collection(documentsCollection)}
}

// Get returns the body of the document with the given key as JSON.
func (r *mongoDocumentStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var doc mongoDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("repo.MongoDocumentStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repo.MongoDocumentStore.Get: %w", err)
	}
	body, err := bsonToJSON(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoDocumentStore.Get: %w", err)
	}
	return body, nil
}

// Set replaces the whole record, inserting it when absent.
func (r *mongoDocumentStore) Set(ctx context.Context, key string, body json.RawMessage) error {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(body, false, &doc); err != nil {
		return fmt.Errorf("repo.MongoDocumentStore.Set: %w: %v", domain.ErrValidation, err)
	}

	record := bson.D{
		{Key: "_id", Value: key},
		{Key: "body", Value: doc},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": key}, record, opts); err != nil {
		return fmt.Errorf("repo.MongoDocumentStore.Set: %w", err)
	}
	return nil
}

// Subscribe opens the change stream before reading the current value, so
// no write committed between the two can be missed.
func (r *mongoDocumentStore) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: key}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	cs, err := r.coll.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("repo.MongoDocumentStore.Subscribe: watch: %w", err)
	}

	first, err := currentChange(ctx, r, key)
	if err != nil {
		_ = cs.Close(context.Background())
		return nil, fmt.Errorf("repo.MongoDocumentStore.Subscribe: %w", err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sub := newSubscription(func() {
		cancel()
		<-done
	})
	sub.deliver(first)

	go func() {
		defer close(done)
		defer close(sub.updates)
		defer cs.Close(context.Background())

		for cs.Next(feedCtx) {
			var ev mongoChangeEvent
			if err := cs.Decode(&ev); err != nil {
				continue
			}
			switch ev.OperationType {
			case "delete":
				sub.deliver(Change{Key: key})
			case "insert", "replace", "update":
				if ev.FullDocument == nil {
					continue
				}
				body, err := bsonToJSON(ev.FullDocument.Body)
				if err != nil {
					continue
				}
				sub.deliver(Change{Key: key, Body: body, Exists: true})
			}
		}
	}()

	return sub, nil
}

// bsonToJSON renders a stored body as relaxed extended JSON, which for the
// plain strings, numbers, arrays and objects we store is ordinary JSON.
func bsonToJSON(raw bson.Raw) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return json.RawMessage(out), nil
}
