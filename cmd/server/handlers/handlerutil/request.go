package handlerutil

import (
	"errors"

	"note-keeper/cmd/server/handlers/httperr"
	"note-keeper/internal/logger"
	"note-keeper/internal/services/notes"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// NotFoundError renders err as a 404 with its message as the body.
func NotFoundError(err error) error {
	return httperr.Fail(httperr.E{
		Status:  fiber.StatusNotFound,
		Message: err.Error(),
	})
}

// GetUserID extracts user ID from fiber context
func GetUserID(c *fiber.Ctx) (bson.ObjectID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	userID, err := bson.ObjectIDFromHex(userIDStr)
	if err != nil {
		logger.L().Error("invalid user ID", "handler", "getUserID", "userIDStr", userIDStr, "path", c.Path(), "error", err)
		return bson.ObjectID{}, httperr.Fail(httperr.ErrUnauthorized)
	}

	return userID, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, validator *validator.Validate, handlerName string) error {
	userID, _ := GetUserID(c)
	userIDHex := userID.Hex()

	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := validator.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userIDHex, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ExtractNoteID extracts and validates note ID from URL parameter. A
// malformed id is reported as a missing note.
func ExtractNoteID(c *fiber.Ctx, userID bson.ObjectID, handlerName string) (bson.ObjectID, error) {
	noteIDStr := c.Params("id")
	if noteIDStr == "" {
		logger.L().Warn("missing note ID parameter", "handler", handlerName, "userID", userID.Hex(), "path", c.Path())
		return bson.ObjectID{}, NotFoundError(notes.ErrNoteNotFound)
	}

	noteID, err := bson.ObjectIDFromHex(noteIDStr)
	if err != nil {
		logger.L().Warn("invalid note ID parameter", "handler", handlerName, "userID", userID.Hex(), "noteIDStr", noteIDStr, "error", err)
		return bson.ObjectID{}, NotFoundError(notes.ErrNoteNotFound)
	}

	return noteID, nil
}

// HandleServiceError maps notes service errors onto HTTP errors
func HandleServiceError(err error, handlerName string, userID bson.ObjectID, noteID *bson.ObjectID) error {
	userIDHex := userID.Hex()
	logFields := []any{"handler", handlerName, "userID", userIDHex, "error", err}

	if noteID != nil {
		logFields = append(logFields, "noteID", noteID.Hex())
	}

	switch {
	case errors.Is(err, notes.ErrValidation):
		logger.L().Info("invalid note input", logFields...)
		return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: err.Error()})
	case errors.Is(err, notes.ErrNoteNotFound):
		logger.L().Info("resource not found", logFields...)
		return NotFoundError(notes.ErrNoteNotFound)
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.InternalError(err.Error()))
}
