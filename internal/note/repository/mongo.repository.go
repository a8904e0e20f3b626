package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notelink/internal/note/model"
	"notelink/pkg/logger"
)

const notesCollection = "notes"

// noteDocument mirrors the document shape written by earlier versions of the
// app, which is why the lifecycle fields may be absent.
type noteDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"userId"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Category    *string            `bson:"category,omitempty"`
	IsImportant *bool              `bson:"isImportant,omitempty"`
	IsDeleted   *bool              `bson:"isDeleted,omitempty"`
	DeletedAt   *time.Time         `bson:"deletedAt"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type MongoRepository struct {
	coll *mongo.Collection
}

// ConnectMongo opens a client and verifies the deployment is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Sugar.Info("Successfully connected to MongoDB")
	return client, nil
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(notesCollection)}
}

// EnsureIndexes creates the indexes backing the owner listings.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "deletedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create note indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, note model.Note) (string, error) {
	res, err := r.coll.InsertOne(ctx, toDocument(note))
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for user %s: %v", note.OwnerID, err)
		return "", fmt.Errorf("insert note: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (model.Note, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Note{}, ErrNotFound
	}
	var doc noteDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Note{}, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get note %s: %v", id, err)
		return model.Note{}, fmt.Errorf("find note: %w", err)
	}
	return doc.record().Normalize(), nil
}

func (r *MongoRepository) ListActive(ctx context.Context, ownerID string) ([]model.Note, error) {
	return r.list(ctx, activeFilter(ownerID), "createdAt")
}

func (r *MongoRepository) ListDeleted(ctx context.Context, ownerID string) ([]model.Note, error) {
	return r.list(ctx, deletedFilter(ownerID), "deletedAt")
}

func (r *MongoRepository) list(ctx context.Context, filter bson.M, sortKey string) ([]model.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortKey, Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notes for user %v: %v", filter["userId"], err)
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []model.Note{}
	for cursor.Next(ctx) {
		var doc noteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode note: %w", err)
		}
		notes = append(notes, doc.record().Normalize())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch model.NotePatch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": patchSet(patch)})
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return fmt.Errorf("update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func activeFilter(ownerID string) bson.M {
	return bson.M{"userId": ownerID, "isDeleted": bson.M{"$ne": true}}
}

func deletedFilter(ownerID string) bson.M {
	return bson.M{"userId": ownerID, "isDeleted": true}
}

func toDocument(note model.Note) noteDocument {
	category := note.Category
	isImportant := note.IsImportant
	isDeleted := note.IsDeleted
	return noteDocument{
		OwnerID:     note.OwnerID,
		Title:       note.Title,
		Description: note.Description,
		Category:    &category,
		IsImportant: &isImportant,
		IsDeleted:   &isDeleted,
		DeletedAt:   note.DeletedAt,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

func (d noteDocument) record() model.NoteRecord {
	return model.NoteRecord{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		IsImportant: d.IsImportant,
		IsDeleted:   d.IsDeleted,
		DeletedAt:   d.DeletedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func patchSet(patch model.NotePatch) bson.M {
	set := bson.M{"updatedAt": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.IsImportant != nil {
		set["isImportant"] = *patch.IsImportant
	}
	if patch.Deletion != nil {
		set["isDeleted"] = patch.Deletion.IsDeleted
		set["deletedAt"] = patch.Deletion.DeletedAt
	}
	return set
}
