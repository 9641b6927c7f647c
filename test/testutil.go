//go:build e2e

package test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonStep is one request in a scripted e2e flow.
type jsonStep struct {
	Name           string
	Method         string
	URL            string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	Check          func(*testing.T, map[string]any)
}

// runStep sends step against baseURL, asserts the status and returns the
// decoded JSON object.
func runStep(t *testing.T, step jsonStep, baseURL string) map[string]any {
	t.Helper()
	t.Logf("step: %s", step.Name)

	resp, err := httpJSON(step.Method, baseURL+step.URL, step.Body, step.Headers)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	assert.Equal(t, step.ExpectedStatus, resp.StatusCode, step.Name)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	if step.Check != nil {
		step.Check(t, out)
	}
	return out
}

func hasFields(fields ...string) func(*testing.T, map[string]any) {
	return func(t *testing.T, body map[string]any) {
		t.Helper()
		for _, f := range fields {
			require.NotEmpty(t, body[f], "field %q", f)
		}
	}
}

func errorContains(want string) func(*testing.T, map[string]any) {
	return func(t *testing.T, body map[string]any) {
		t.Helper()
		msg, _ := body["error"].(string)
		assert.Contains(t, msg, want)
	}
}

func stringField(t *testing.T, body map[string]any, field string) string {
	t.Helper()
	s, ok := body[field].(string)
	require.True(t, ok, "field %q should be a string", field)
	require.NotEmpty(t, s)
	return s
}
