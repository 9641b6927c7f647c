package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"note-keeper/internal/config"
	"note-keeper/internal/services/media"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/time/rate"
)

// uploadAPI is the slice of the Cloudinary upload API the store needs.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Store keeps media in Cloudinary. Images go to the image folder, audio is
// stored as a video resource in the audio folder. Public ids are
// <folder>/<owner hex>/<ulid> so deletes can be checked against the caller.
type Store struct {
	api         uploadAPI
	cloud       string
	imageFolder string
	audioFolder string
	limiter     *rate.Limiter
	timeout     time.Duration
	log         *slog.Logger
}

// New creates a Cloudinary store from configuration.
func New(cfg config.Config, log *slog.Logger) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return newStore(&cld.Upload, cfg, log), nil
}

func newStore(api uploadAPI, cfg config.Config, log *slog.Logger) *Store {
	return &Store{
		api:         api,
		cloud:       cfg.CloudinaryCloudName,
		imageFolder: cfg.CloudinaryImageFolder,
		audioFolder: cfg.CloudinaryAudioFolder,
		limiter:     rate.NewLimiter(rate.Limit(cfg.MediaRatePerSec), cfg.MediaBurst),
		timeout:     time.Duration(cfg.MediaTimeoutSec) * time.Second,
		log:         log,
	}
}

// Put uploads obj under a fresh owner-scoped public id and returns its secure URL.
func (s *Store) Put(ctx context.Context, obj media.Object) (string, error) {
	folder, resourceType := s.imageFolder, "image"
	if obj.Kind == media.KindAudio {
		folder, resourceType = s.audioFolder, "video"
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("cloudinary rate limit: %w", err)
	}

	res, err := s.api.Upload(ctx, bytes.NewReader(obj.Data), uploader.UploadParams{
		PublicID:     ownerPrefix(folder, obj.OwnerID) + ulid.Make().String(),
		ResourceType: resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure_url")
	}

	s.log.Debug("media uploaded", "public_id", res.PublicID, "resource_type", resourceType, "user_id", obj.OwnerID.Hex())
	return res.SecureURL, nil
}

// Delete destroys the asset behind url when it was stored for ownerID.
// Assets that are already gone count as deleted. URLs outside the configured
// cloud and assets of other owners are left alone.
func (s *Store) Delete(ctx context.Context, ownerID bson.ObjectID, url string) error {
	asset, err := ParseURL(url)
	if err != nil || asset.Cloud != s.cloud {
		s.log.Debug("skipping delete of foreign media url", "url", url)
		return nil
	}
	if !s.ownedBy(asset, ownerID) {
		s.log.Debug("skipping delete of media not owned by caller", "public_id", asset.PublicID, "user_id", ownerID.Hex())
		return nil
	}

	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("cloudinary rate limit: %w", err)
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     asset.PublicID,
		ResourceType: asset.ResourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", asset.PublicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", asset.PublicID, res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy %s: result %q", asset.PublicID, res.Result)
	}
}

func (s *Store) ownedBy(asset Asset, ownerID bson.ObjectID) bool {
	var folder string
	switch asset.ResourceType {
	case "image":
		folder = s.imageFolder
	case "video":
		folder = s.audioFolder
	default:
		return false
	}
	return strings.HasPrefix(asset.PublicID, ownerPrefix(folder, ownerID))
}

func ownerPrefix(folder string, ownerID bson.ObjectID) string {
	return folder + "/" + ownerID.Hex() + "/"
}

func (s *Store) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
