package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"note-keeper/internal/logger"
	"note-keeper/internal/services/media"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MediaFilesPath is the route prefix GridFS files are served from.
const MediaFilesPath = "/api/v1/media/files/"

// MediaStore keeps uploaded media in a GridFS bucket and addresses each file
// by a URL under PUBLIC_BASE_URL.
type MediaStore struct {
	bucket *mongo.GridFSBucket
	prefix string
}

type fileMetadata struct {
	Kind        media.Kind    `bson:"kind"`
	ContentType string        `bson:"content_type"`
	UserID      bson.ObjectID `bson:"user_id"`
}

// StoredFile is an open GridFS download.
type StoredFile struct {
	ContentType string
	Length      int64
	Body        io.ReadCloser
}

// NewMediaStore creates a GridFS-backed media store in the "media" bucket.
func NewMediaStore(db *mongo.Database, publicBaseURL string) *MediaStore {
	return &MediaStore{
		bucket: db.GridFSBucket(options.GridFSBucket().SetName("media")),
		prefix: strings.TrimRight(publicBaseURL, "/") + MediaFilesPath,
	}
}

// Put stores obj and returns its public URL.
func (s *MediaStore) Put(ctx context.Context, obj media.Object) (string, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.GridFSUpload().SetMetadata(fileMetadata{
		Kind:        obj.Kind,
		ContentType: obj.ContentType,
		UserID:      obj.OwnerID,
	})

	id, err := s.bucket.UploadFromStream(ctx, obj.Name+obj.Extension, bytes.NewReader(obj.Data), opts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return s.prefix + id.Hex(), nil
}

// Delete removes the file behind url when it was stored for ownerID. A file
// that is already gone counts as deleted. URLs this store did not issue and
// files owned by someone else are left alone.
func (s *MediaStore) Delete(ctx context.Context, ownerID bson.ObjectID, url string) error {
	id, ok := s.fileID(url)
	if !ok {
		logger.L().Debug("skipping delete of foreign media url", "url", url)
		return nil
	}

	ctx, cancel := repoCtx(ctx)
	defer cancel()

	owned, err := s.bucket.GetFilesCollection().CountDocuments(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "metadata.user_id", Value: ownerID},
	})
	if err != nil {
		return fmt.Errorf("gridfs lookup %s: %w", id.Hex(), err)
	}
	if owned == 0 {
		logger.L().Debug("skipping delete of media not owned by caller", "file_id", id.Hex(), "user_id", ownerID.Hex())
		return nil
	}

	if err := s.bucket.Delete(ctx, id); err != nil && !errors.Is(err, mongo.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete %s: %w", id.Hex(), err)
	}
	return nil
}

// Open streams the file with the given hex id back to its owner. Missing
// files and files owned by someone else both yield media.ErrNotFound.
// The caller must close Body.
func (s *MediaStore) Open(ctx context.Context, ownerID bson.ObjectID, hexID string) (*StoredFile, error) {
	id, err := bson.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, media.ErrNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrFileNotFound) {
			return nil, media.ErrNotFound
		}
		return nil, fmt.Errorf("gridfs open %s: %w", hexID, err)
	}

	file := stream.GetFile()
	var meta fileMetadata
	if file.Metadata != nil {
		if err := bson.Unmarshal(file.Metadata, &meta); err != nil {
			_ = stream.Close()
			return nil, fmt.Errorf("gridfs metadata %s: %w", hexID, err)
		}
	}
	if meta.UserID != ownerID {
		_ = stream.Close()
		return nil, media.ErrNotFound
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &StoredFile{
		ContentType: contentType,
		Length:      file.Length,
		Body:        stream,
	}, nil
}

func (s *MediaStore) fileID(url string) (bson.ObjectID, bool) {
	hexID, ok := strings.CutPrefix(url, s.prefix)
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(hexID)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}
