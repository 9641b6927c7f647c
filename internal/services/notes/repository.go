package notes

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for notes repository operations.
// Every method is scoped to the owning user; a note owned by someone else
// behaves exactly like a missing one (ErrNoteNotFound).
type Repository interface {
	Create(ctx context.Context, n *Note) error
	FindByID(ctx context.Context, userID, noteID bson.ObjectID) (*Note, error)
	List(ctx context.Context, userID bson.ObjectID, filter ListFilter) ([]*Note, error)
	// Replace stores the full state of n and returns the persisted note.
	Replace(ctx context.Context, n *Note) (*Note, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// MediaStore releases media blobs addressed by URL. Blobs that were not
// stored for ownerID must be left in place.
type MediaStore interface {
	Delete(ctx context.Context, ownerID bson.ObjectID, url string) error
}
