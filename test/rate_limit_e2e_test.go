//go:build e2e

package test

import (
	"fmt"
	"net/http"
	"testing"
)

const (
	rateLimitEmail    = "ratelimit@example.com"
	rateLimitPassword = "Passw0rd123"
	maxPerMinute      = 3 // small quota so we hit 429 quickly
)

func TestRateLimitE2E(t *testing.T) {
	extraEnv := map[string]string{
		"SIGNIN_RATE_PER_MIN": fmt.Sprint(maxPerMinute),
	}

	env1 := SetupTestEnvironmentWithEnv(t, extraEnv)

	// sign-up shares the auth quota
	t.Run("setup_user", func(t *testing.T) {
		signUp(t, env1.Client, env1.BaseURL, "Rate", rateLimitEmail, rateLimitPassword)
	})

	t.Run("rate_limit_sign_in", func(t *testing.T) {
		for i := 0; i < maxPerMinute-1; i++ {
			signInExpect(t, env1.Client, env1.BaseURL, rateLimitEmail, rateLimitPassword, http.StatusOK)
		}
		signInExpect(t, env1.Client, env1.BaseURL, rateLimitEmail, rateLimitPassword, http.StatusTooManyRequests)
	})
}
