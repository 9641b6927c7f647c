package notes

import (
	"context"
	"errors"

	"note-keeper/cmd/server/handlers/handlerutil"
	"note-keeper/cmd/server/handlers/httperr"
	"note-keeper/internal/logger"
	"note-keeper/internal/services/notes"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service defines the interface for notes service
type Service interface {
	Create(ctx context.Context, userID bson.ObjectID, req notes.CreateNoteRequest) (*notes.NoteResponse, error)
	Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.NoteResponse, error)
	ListAll(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error)
	ListFavourites(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error)
	Update(ctx context.Context, userID, noteID bson.ObjectID, req notes.UpdateNoteRequest) (*notes.NoteResponse, error)
	Delete(ctx context.Context, userID, noteID bson.ObjectID) error
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Note deleted"`
}

// Handlers contains the notes HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new notes handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// Create handles note creation
// @Summary Create a new note
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body notes.CreateNoteRequest true "Create note request"
// @Success 201 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /notes [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req notes.CreateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Create"); err != nil {
		return err
	}

	resp, err := h.service.Create(c.UserContext(), userID, req)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Create", userID, nil)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List handles listing all notes of the caller
// @Summary List all notes, newest first
// @Tags notes
// @Produce json
// @Security Bearer
// @Success 200 {object} notes.ListNotesResponse
// @Failure 401 {object} httperr.E
// @Router /notes [get]
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.ListAll(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "List", userID, nil)
	}

	return c.JSON(resp)
}

// ListFavourites handles listing the caller's favourite notes
// @Summary List favourite notes, newest first
// @Tags notes
// @Produce json
// @Security Bearer
// @Success 200 {object} notes.ListNotesResponse
// @Failure 401 {object} httperr.E
// @Router /notes/favourites [get]
func (h *Handlers) ListFavourites(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.service.ListFavourites(c.UserContext(), userID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "ListFavourites", userID, nil)
	}

	return c.JSON(resp)
}

// Get handles fetching a single note
// @Summary Get a note
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} notes.NoteResponse
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Get")
	if err != nil {
		return err
	}

	resp, err := h.service.Get(c.UserContext(), userID, noteID)
	if err != nil {
		return handlerutil.HandleServiceError(err, "Get", userID, &noteID)
	}

	return c.JSON(resp)
}

// Update handles note updates, including attachment changes
// @Summary Update a note
// @Description Removed or replaced media is deleted from the media store before the note is saved.
// @Description If any deletion fails the note is left unchanged and 502 lists the failed URLs.
// @Tags notes
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Param request body notes.UpdateNoteRequest true "Update note request"
// @Success 200 {object} notes.NoteResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Failure 502 {object} httperr.Cleanup
// @Router /notes/{id} [put]
// @Router /notes/{id} [patch]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Update")
	if err != nil {
		return err
	}

	var req notes.UpdateNoteRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Update"); err != nil {
		return err
	}

	resp, err := h.service.Update(c.UserContext(), userID, noteID, req)
	if err != nil {
		var cleanupErr *notes.MediaCleanupError
		if errors.As(err, &cleanupErr) {
			logger.L().Warn("update aborted by media cleanup", "handler", "Update", "userID", userID.Hex(), "noteID", noteID.Hex(), "failed", cleanupErr.URLs())
			return httperr.CleanupAborted(notes.ErrMediaCleanup.Error(), cleanupErr.URLs())
		}
		return handlerutil.HandleServiceError(err, "Update", userID, &noteID)
	}

	return c.JSON(resp)
}

// Delete handles note deletion
// @Summary Delete a note and its media
// @Description The note is always removed once found. 207 lists media that could not be deleted.
// @Tags notes
// @Produce json
// @Security Bearer
// @Param id path string true "Note ID"
// @Success 200 {object} MessageResponse
// @Success 207 {object} httperr.Cleanup
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /notes/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	noteID, err := handlerutil.ExtractNoteID(c, userID, "Delete")
	if err != nil {
		return err
	}

	err = h.service.Delete(c.UserContext(), userID, noteID)
	if err != nil {
		var cleanupErr *notes.MediaCleanupError
		if errors.As(err, &cleanupErr) {
			logger.L().Warn("note deleted with leftover media", "handler", "Delete", "userID", userID.Hex(), "noteID", noteID.Hex(), "failed", cleanupErr.URLs())
			return httperr.CleanupPartial("Note deleted, some media could not be removed", cleanupErr.URLs())
		}
		return handlerutil.HandleServiceError(err, "Delete", userID, &noteID)
	}

	return c.JSON(MessageResponse{Message: "Note deleted"})
}
