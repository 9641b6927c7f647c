package media

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind tells images from audio clips.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Object is a validated blob ready to be stored.
type Object struct {
	Kind        Kind
	OwnerID     bson.ObjectID
	Name        string
	ContentType string
	Extension   string
	Data        []byte
}

// Store persists blobs and addresses them by public URL. Delete only removes
// blobs stored for ownerID; any other URL is left alone and reported as done.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, ownerID bson.ObjectID, url string) error
}
