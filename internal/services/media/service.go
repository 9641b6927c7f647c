package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

// MaxImagesPerUpload caps the number of images accepted by one upload.
const MaxImagesPerUpload = 4

// File is one uploaded file as received by the transport.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Limits bounds what the service accepts.
type Limits struct {
	MaxImageBytes    int64
	MaxAudioBytes    int64
	MaxAudioDuration time.Duration
}

// Service validates uploads and hands them to the media store
type Service struct {
	store  Store
	limits Limits
	log    *slog.Logger
}

// NewService creates a new media service
func NewService(store Store, limits Limits, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		limits: limits,
		log:    log,
	}
}

// ImagesResponse lists the URLs of stored images in upload order
type ImagesResponse struct {
	Images []string `json:"images" example:"https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/01JX.png"`
}

// AudioResponse holds the URL of a stored audio clip
type AudioResponse struct {
	Audio string `json:"audio" example:"https://res.cloudinary.com/demo/video/upload/v1/Notes-app-audio/01JX.mp3"`
}

// UploadImages validates and stores up to four images. The returned URLs keep
// the order of files. When any upload fails the ones already stored are
// removed again.
func (s *Service) UploadImages(ctx context.Context, ownerID bson.ObjectID, files []File) (*ImagesResponse, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > MaxImagesPerUpload {
		return nil, fmt.Errorf("%w: at most %d images per upload", ErrTooManyFiles, MaxImagesPerUpload)
	}

	objects := make([]Object, len(files))
	for i, f := range files {
		data, err := readFile(f, s.limits.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		mt, err := checkImage(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		objects[i] = Object{
			Kind:        KindImage,
			OwnerID:     ownerID,
			Name:        f.Name,
			ContentType: mt.String(),
			Extension:   mt.Extension(),
			Data:        data,
		}
	}

	urls := make([]string, len(objects))
	errs := make([]error, len(objects))
	var g errgroup.Group
	for i := range objects {
		g.Go(func() error {
			urls[i], errs[i] = s.store.Put(ctx, objects[i])
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	for _, err := range errs {
		if err != nil {
			firstErr = err
			break
		}
	}
	if firstErr != nil {
		s.rollback(ctx, ownerID, urls)
		s.log.Error(ErrUpload.Error(), "error", firstErr, "user_id", ownerID.Hex(), "kind", KindImage)
		return nil, ErrUpload
	}

	return &ImagesResponse{Images: urls}, nil
}

// UploadAudio validates and stores exactly one audio clip. declared is the
// client-reported duration, used only for formats that cannot be measured.
func (s *Service) UploadAudio(ctx context.Context, ownerID bson.ObjectID, files []File, declared time.Duration) (*AudioResponse, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > 1 {
		return nil, fmt.Errorf("%w: exactly one audio file per upload", ErrTooManyFiles)
	}
	f := files[0]

	data, err := readFile(f, s.limits.MaxAudioBytes)
	if err != nil {
		return nil, err
	}
	mt, d, err := audioDuration(data, declared)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	if d > s.limits.MaxAudioDuration {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrAudioTooLong, d.Round(time.Millisecond), s.limits.MaxAudioDuration)
	}

	url, err := s.store.Put(ctx, Object{
		Kind:        KindAudio,
		OwnerID:     ownerID,
		Name:        f.Name,
		ContentType: mt.String(),
		Extension:   mt.Extension(),
		Data:        data,
	})
	if err != nil {
		s.log.Error(ErrUpload.Error(), "error", err, "user_id", ownerID.Hex(), "kind", KindAudio)
		return nil, ErrUpload
	}

	return &AudioResponse{Audio: url}, nil
}

func (s *Service) rollback(ctx context.Context, ownerID bson.ObjectID, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := s.store.Delete(ctx, ownerID, u); err != nil {
			s.log.Warn("failed to roll back uploaded media", "error", err, "user_id", ownerID.Hex(), "url", u)
		}
	}
}

func readFile(f File, limit int64) ([]byte, error) {
	if f.Size > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, f.Name, limit)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, f.Name, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnsupportedType, f.Name)
	}
	return data, nil
}
