package middlewares

import (
	"note-keeper/internal/config"
	"note-keeper/internal/services/auth"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenLookup lists where the access token is read from, in order.
const TokenLookup = "header:Authorization,cookie:jwt"

// JWT returns a Fiber middleware that verifies the access token from the
// Authorization header or the jwt cookie and stores the "user_id" and
// "email" claims in ctx.Locals("userID") / ctx.Locals("userEmail").
//
// Any failure surfaces as a 401 through the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		TokenLookup: TokenLookup,
		SuccessHandler: func(c *fiber.Ctx) error {
			token := c.Locals("user").(*jwt.Token)
			claims, _ := token.Claims.(jwt.MapClaims)

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				return auth.ErrInvalidTokenMissingUserID
			}

			userEmail, ok := claims["email"].(string)
			if !ok || userEmail == "" {
				return auth.ErrInvalidTokenMissingEmail
			}

			c.Locals("userID", userID)
			c.Locals("userEmail", userEmail)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return auth.ErrUnauthorized(err)
		},
	})
}
