package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"note-keeper/cmd/server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMe(t *testing.T) {
	app := testutil.CreateTestApp(t)
	app.Get("/me", testutil.WithUser("683cdb8aa96ad71e8e075bd0"), Me)
	app.Get("/anon", Me)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var got MeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "683cdb8aa96ad71e8e075bd0", got.UID)
	assert.Equal(t, "test@example.com", got.Email)

	resp, err = app.Test(httptest.NewRequest("GET", "/anon", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHealthzWithoutDatabase(t *testing.T) {
	app := testutil.CreateTestApp(t)
	app.Get("/healthz", Healthz)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	var got HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "down", got.Status)
}
