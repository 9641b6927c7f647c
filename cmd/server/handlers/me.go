package handlers

import (
	"note-keeper/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
)

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UID   string `json:"uid" example:"683cdb8aa96ad71e8e075bd0"`
	Email string `json:"email" example:"test@example.com"`
}

// Me returns the identity carried by the access token.
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} MeResponse
// @Failure 401 {object} httperr.E
// @Router /me [get]
func Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return httperr.Fail(httperr.ErrUserNotAuthenticated)
	}
	userEmail, _ := c.Locals("userEmail").(string)
	return c.JSON(MeResponse{UID: userID, Email: userEmail})
}
