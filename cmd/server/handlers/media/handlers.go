package media

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"time"

	"note-keeper/cmd/server/handlers/handlerutil"
	"note-keeper/cmd/server/handlers/httperr"
	"note-keeper/internal/clients/mongo"
	"note-keeper/internal/logger"
	"note-keeper/internal/services/media"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Form field names.
const (
	ImagesField   = "images"
	AudioField    = "audio"
	DurationField = "duration"
)

// Service defines the interface for the media upload service
type Service interface {
	UploadImages(ctx context.Context, ownerID bson.ObjectID, files []media.File) (*media.ImagesResponse, error)
	UploadAudio(ctx context.Context, ownerID bson.ObjectID, files []media.File, declared time.Duration) (*media.AudioResponse, error)
}

// FileOpener streams stored media back to its owner
type FileOpener interface {
	Open(ctx context.Context, ownerID bson.ObjectID, hexID string) (*mongo.StoredFile, error)
}

// Handlers contains the media HTTP handlers
type Handlers struct {
	service Service
	files   FileOpener
}

// NewHandlers creates new media handlers. files may be nil when media is
// not served by this process.
func NewHandlers(service Service, files FileOpener) *Handlers {
	return &Handlers{
		service: service,
		files:   files,
	}
}

// UploadImages handles image uploads
// @Summary Upload up to four images
// @Description Accepts png, jpeg and webp. Returns the stored URLs in upload order.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param images formData file true "Image files (1-4)"
// @Success 201 {object} media.ImagesResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /media/images [post]
func (h *Handlers) UploadImages(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	files, err := formFiles(c, ImagesField)
	if err != nil {
		return err
	}

	resp, err := h.service.UploadImages(c.UserContext(), userID, files)
	if err != nil {
		return handleMediaError(err, "UploadImages", userID)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UploadAudio handles audio uploads
// @Summary Upload one audio clip
// @Description wav and mp3 durations are measured. ogg and mp4 need the duration field.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param audio formData file true "Audio file"
// @Param duration formData number false "Clip length in seconds"
// @Success 201 {object} media.AudioResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Failure 502 {object} httperr.E
// @Router /media/audio [post]
func (h *Handlers) UploadAudio(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	files, err := formFiles(c, AudioField)
	if err != nil {
		return err
	}

	declared, err := parseDuration(c.FormValue(DurationField))
	if err != nil {
		logger.L().Warn("invalid duration field", "handler", "UploadAudio", "userID", userID.Hex(), "error", err)
		return httperr.InvalidInput(err)
	}

	resp, err := h.service.UploadAudio(c.UserContext(), userID, files, declared)
	if err != nil {
		return handleMediaError(err, "UploadAudio", userID)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// File streams a GridFS-stored file to its owner
// @Summary Download a stored media file
// @Tags media
// @Produce octet-stream
// @Security Bearer
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /media/files/{id} [get]
func (h *Handlers) File(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}
	if h.files == nil {
		return httperr.Fail(httperr.ErrNotFound)
	}

	file, err := h.files.Open(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return httperr.Fail(httperr.E{Status: fiber.StatusNotFound, Message: media.ErrNotFound.Error()})
		}
		logger.L().Error("open media file failed", "handler", "File", "userID", userID.Hex(), "fileID", c.Params("id"), "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=86400")
	return c.SendStream(file.Body, int(file.Length))
}

func formFiles(c *fiber.Ctx, field string) ([]media.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		logger.L().Warn("failed to parse multipart form", "path", c.Path(), "error", err)
		return nil, httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: "expected multipart/form-data"})
	}

	headers := form.File[field]
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toFile(fh))
	}
	return files, nil
}

func toFile(fh *multipart.FileHeader) media.File {
	return media.File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// parseDuration reads a duration in seconds. Empty means not declared.
func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return 0, errors.New("duration must be a non-negative number of seconds")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func handleMediaError(err error, handlerName string, userID bson.ObjectID) error {
	logFields := []any{"handler", handlerName, "userID", userID.Hex(), "error", err}

	switch {
	case errors.Is(err, media.ErrNoFiles),
		errors.Is(err, media.ErrTooManyFiles),
		errors.Is(err, media.ErrUnsupportedType),
		errors.Is(err, media.ErrFileTooLarge),
		errors.Is(err, media.ErrAudioTooLong),
		errors.Is(err, media.ErrDurationRequired):
		logger.L().Info("media rejected", logFields...)
		return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: err.Error()})
	case errors.Is(err, media.ErrUpload):
		logger.L().Error("media store upload failed", logFields...)
		return httperr.Fail(httperr.E{Status: fiber.StatusBadGateway, Message: media.ErrUpload.Error()})
	}

	logger.L().Error("media service failed", logFields...)
	return httperr.Fail(httperr.ErrInternal)
}
