package httperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// E is an HTTP error rendered as {"error": Message}.
type E struct {
	Status  int    `json:"-" example:"400"`
	Message string `json:"error" example:"Bad Request"`
}

func (e E) Error() string { return e.Message }

// StatusCode is the HTTP status the error is rendered with.
func (e E) StatusCode() int { return e.Status }

// JSON writes the error body with its status.
func (e E) JSON(c *fiber.Ctx) error {
	return c.Status(e.Status).JSON(e)
}

// Cleanup reports media URLs that could not be deleted. It is returned as
// 502 when the request was aborted and 207 when it went through anyway.
type Cleanup struct {
	Status     int      `json:"-"`
	Err        string   `json:"error,omitempty" example:"media cleanup failed"`
	Message    string   `json:"message,omitempty" example:"Note deleted, some media could not be removed"`
	FailedURLs []string `json:"failed_urls"`
}

func (e Cleanup) Error() string {
	if e.Err != "" {
		return e.Err
	}
	return e.Message
}

// StatusCode is the HTTP status the report is rendered with.
func (e Cleanup) StatusCode() int { return e.Status }

// CleanupAborted is the 502 body for a request undone by failed media deletes.
func CleanupAborted(msg string, failed []string) Cleanup {
	return Cleanup{Status: fiber.StatusBadGateway, Err: msg, FailedURLs: failed}
}

// CleanupPartial is the 207 body for a request that completed with leftover media.
func CleanupPartial(msg string, failed []string) Cleanup {
	return Cleanup{Status: fiber.StatusMultiStatus, Message: msg, FailedURLs: failed}
}

// Fail returns err for the global error handler.
func Fail(err E) error {
	return err
}

// InvalidInput turns a binding or validation error into a 400.
func InvalidInput(err error) error {
	return Fail(E{
		Status:  fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
	})
}

// InternalError is a 500 with the given message.
func InternalError(message string) E {
	return E{Status: fiber.StatusInternalServerError, Message: message}
}

var (
	ErrBadRequest           = E{Status: fiber.StatusBadRequest, Message: "Bad Request"}
	ErrUnauthorized         = E{Status: fiber.StatusUnauthorized, Message: "Unauthorized"}
	ErrUserNotAuthenticated = E{Status: fiber.StatusUnauthorized, Message: "User not authenticated"}
	ErrNotFound             = E{Status: fiber.StatusNotFound, Message: "Not Found"}
	ErrTooManyRequests      = E{Status: fiber.StatusTooManyRequests, Message: "Too Many Requests"}
	ErrBadGateway           = E{Status: fiber.StatusBadGateway, Message: "Bad Gateway"}
	ErrInternal             = InternalError("Internal Server Error")
)

// Status reports the HTTP status carried by err, if any.
func Status(err error) (int, bool) {
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode(), true
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return 0, false
}

// Handler is the global Fiber error handler.
func Handler(c *fiber.Ctx, err error) error {
	var cleanup Cleanup
	if errors.As(err, &cleanup) {
		return c.Status(cleanup.Status).JSON(cleanup)
	}

	var e E
	if errors.As(err, &e) {
		return e.JSON(c)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return E{Status: fe.Code, Message: fe.Message}.JSON(c)
	}

	return ErrInternal.JSON(c)
}
