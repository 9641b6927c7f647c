package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-keeper/internal/logger"
	"note-keeper/internal/services/notes"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NotesRepo implements the notes.Repository interface for MongoDB
type NotesRepo struct {
	collection *mongo.Collection
}

// translateNotFound maps the driver ErrNoDocuments to the domain-level ErrNoteNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notes.ErrNoteNotFound
	}
	return err
}

// newestFirst is the listing order: creation time, then id, both descending.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// NewNotesRepo creates a new notes repository
func NewNotesRepo(parentCtx context.Context, db *mongo.Database) (*NotesRepo, error) {
	collection := db.Collection("notes")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
				{Key: "_id", Value: -1},
			},
			Options: options.Index().SetName("user_created_desc_id_desc"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_favourite", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("user_favourite_created_desc"),
		},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.L().Debug("index already exists, continuing", "collection", "notes")
		} else {
			logger.L().Error("failed to create index", "collection", "notes", "error", err)
			return nil, fmt.Errorf("%w: %v", notes.ErrCreateNotesRepo, err)
		}
	}

	return &NotesRepo{
		collection: collection,
	}, nil
}

// Create creates a new note in the database
func (r *NotesRepo) Create(ctx context.Context, note *notes.Note) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if note.CreatedAt.IsZero() {
		now := time.Now().UTC()
		note.CreatedAt = now
		note.UpdatedAt = now
	}
	if note.Images == nil {
		note.Images = []string{}
	}

	_, err := r.collection.InsertOne(ctx, note)
	return err
}

// FindByID returns the note with noteID if it belongs to userID
func (r *NotesRepo) FindByID(ctx context.Context, userID, noteID bson.ObjectID) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var note notes.Note
	err := r.collection.FindOne(ctx, bson.M{"_id": noteID, "user_id": userID}).Decode(&note)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &note, nil
}

// List returns the user's notes, newest first
func (r *NotesRepo) List(ctx context.Context, userID bson.ObjectID, filter notes.ListFilter) ([]*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	query := bson.M{"user_id": userID}
	if filter.FavouritesOnly {
		query["is_favourite"] = true
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	notesList := []*notes.Note{}
	if err := cursor.All(ctx, &notesList); err != nil {
		return nil, err
	}

	return notesList, nil
}

// Replace overwrites the mutable fields of a note belonging to n.UserID and
// returns the stored result. An empty audio URL removes the field.
func (r *NotesRepo) Replace(ctx context.Context, n *notes.Note) (*notes.Note, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{
		"_id":     n.ID,
		"user_id": n.UserID,
	}

	images := n.Images
	if images == nil {
		images = []string{}
	}
	updatedAt := n.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	set := bson.M{
		"title":        n.Title,
		"content":      n.Content,
		"images":       images,
		"is_favourite": n.IsFavourite,
		"updated_at":   updatedAt,
	}
	update := bson.M{"$set": set}
	if n.Audio == "" {
		update["$unset"] = bson.M{"audio": ""}
	} else {
		set["audio"] = n.Audio
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updatedNote notes.Note
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updatedNote)
	if err != nil {
		return nil, translateNotFound(err)
	}

	return &updatedNote, nil
}

// Delete deletes a note belonging to the specified user
func (r *NotesRepo) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{
		"_id":     noteID,
		"user_id": userID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return notes.ErrNoteNotFound
	}

	return nil
}
