package middlewares

import (
	"strings"
	"time"

	"note-keeper/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// BuildRateLimiter returns a limiter allowing max requests per expiration
// window. It is a pass-through when max <= 0. Requests whose path starts
// with one of skipPrefixes are not counted.
//
// Authenticated requests are keyed by user id so uploads from one account
// do not throttle others behind the same address.
func BuildRateLimiter(max int, expiration time.Duration, skipPrefixes ...string) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	cfg := limiter.Config{
		Max:          max,
		Expiration:   expiration,
		KeyGenerator: limiterKey,
		LimitReached: func(c *fiber.Ctx) error {
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	}

	if len(skipPrefixes) > 0 {
		cfg.Next = func(c *fiber.Ctx) bool {
			for _, p := range skipPrefixes {
				if strings.HasPrefix(c.Path(), p) {
					return true
				}
			}
			return false
		}
	}

	return limiter.New(cfg)
}

func limiterKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userID").(string); ok && userID != "" {
		return "user:" + userID
	}
	return c.IP()
}
