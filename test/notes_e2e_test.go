//go:build e2e

package test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesE2E(t *testing.T) {
	env := SetupTestEnvironment(t)
	testPassword := "Password123"
	authToken := setupTestUser(t, env, "Note User", "noteuser@example.com", testPassword)
	headers := map[string]string{"Authorization": "Bearer " + authToken}

	images := uploadImages(t, env, authToken, 2)
	audio := uploadAudio(t, env, authToken)

	var noteID string

	t.Run("media_is_served_to_owner", func(t *testing.T) {
		for _, u := range append([]string{audio}, images...) {
			assert.Equal(t, http.StatusOK, fetchStatus(t, env, u, authToken), u)
		}
	})

	t.Run("create_note", func(t *testing.T) {
		payload := map[string]any{
			"title":   "Groceries",
			"content": "milk, <script>alert(1)</script>eggs",
			"images":  images,
			"audio":   audio,
		}
		resp := makeHTTPRequest(t, "POST", env.BaseURL+notesEndpoint, payload, headers, http.StatusCreated)

		note := resp["note"].(map[string]any)
		assert.Equal(t, "Groceries", note["title"])
		assert.NotContains(t, note["content"], "<script>")
		assert.Equal(t, false, note["is_favourite"])
		assert.Len(t, note["images"], 2)
		assert.Equal(t, audio, note["audio"])
		noteID = note["id"].(string)
		require.NotEmpty(t, noteID)
	})

	t.Run("list_and_favourites", func(t *testing.T) {
		verifyNotesList(t, env, headers, notesEndpoint, noteID, 1)
		verifyNotesList(t, env, headers, notesEndpoint+"/favourites", "", 0)

		makeHTTPRequest(t, "PATCH", env.BaseURL+notesEndpoint+"/"+noteID, map[string]any{"is_favourite": true}, headers, http.StatusOK)
		verifyNotesList(t, env, headers, notesEndpoint+"/favourites", noteID, 1)
	})

	t.Run("removing_image_deletes_media", func(t *testing.T) {
		resp := makeHTTPRequest(t, "PATCH", env.BaseURL+notesEndpoint+"/"+noteID,
			map[string]any{"remove_images": []string{images[0]}}, headers, http.StatusOK)

		note := resp["note"].(map[string]any)
		assert.Equal(t, []any{images[1]}, note["images"])
		assert.Equal(t, "Groceries", note["title"], "untouched fields keep their value")
		assert.Equal(t, http.StatusNotFound, fetchStatus(t, env, images[0], authToken))
		assert.Equal(t, http.StatusOK, fetchStatus(t, env, images[1], authToken))
	})

	t.Run("replacing_audio_deletes_old_clip", func(t *testing.T) {
		newAudio := uploadAudio(t, env, authToken)
		resp := makeHTTPRequest(t, "PUT", env.BaseURL+notesEndpoint+"/"+noteID,
			map[string]any{"audio": newAudio}, headers, http.StatusOK)

		note := resp["note"].(map[string]any)
		assert.Equal(t, newAudio, note["audio"])
		assert.Equal(t, http.StatusNotFound, fetchStatus(t, env, audio, authToken))
		audio = newAudio
	})

	t.Run("other_user_sees_nothing", func(t *testing.T) {
		otherToken := setupTestUser(t, env, "Other", "otheruser@example.com", testPassword)
		otherHeaders := map[string]string{"Authorization": "Bearer " + otherToken}

		makeHTTPRequest(t, "GET", env.BaseURL+notesEndpoint+"/"+noteID, nil, otherHeaders, http.StatusNotFound)
		makeHTTPRequest(t, "PATCH", env.BaseURL+notesEndpoint+"/"+noteID, map[string]any{"title": "Hacked"}, otherHeaders, http.StatusNotFound)
		makeHTTPRequest(t, "DELETE", env.BaseURL+notesEndpoint+"/"+noteID, nil, otherHeaders, http.StatusNotFound)
		assert.Equal(t, http.StatusNotFound, fetchStatus(t, env, images[1], otherToken))
	})

	t.Run("borrowed_media_survives_other_users_delete", func(t *testing.T) {
		otherToken := setupTestUser(t, env, "Borrower", "borrower@example.com", testPassword)
		otherHeaders := map[string]string{"Authorization": "Bearer " + otherToken}

		resp := makeHTTPRequest(t, "POST", env.BaseURL+notesEndpoint, map[string]any{
			"title": "Borrowed", "content": "not mine", "images": []string{images[1]}, "audio": audio,
		}, otherHeaders, http.StatusCreated)
		borrowedID := resp["note"].(map[string]any)["id"].(string)

		makeHTTPRequest(t, "DELETE", env.BaseURL+notesEndpoint+"/"+borrowedID, nil, otherHeaders, http.StatusOK)

		assert.Equal(t, http.StatusOK, fetchStatus(t, env, images[1], authToken))
		assert.Equal(t, http.StatusOK, fetchStatus(t, env, audio, authToken))
	})

	t.Run("delete_note_removes_media", func(t *testing.T) {
		resp := makeHTTPRequest(t, "DELETE", env.BaseURL+notesEndpoint+"/"+noteID, nil, headers, http.StatusOK)
		assert.Equal(t, "Note deleted", resp["message"])

		assert.Equal(t, http.StatusNotFound, fetchStatus(t, env, images[1], authToken))
		assert.Equal(t, http.StatusNotFound, fetchStatus(t, env, audio, authToken))
		makeHTTPRequest(t, "GET", env.BaseURL+notesEndpoint+"/"+noteID, nil, headers, http.StatusNotFound)
		verifyNotesList(t, env, headers, notesEndpoint, "", 0)
	})
}

func TestMediaValidationE2E(t *testing.T) {
	env := SetupTestEnvironment(t)
	token := setupTestUser(t, env, "Media", "media@example.com", "Password123")

	status, _ := uploadMultipart(t, env.Client, env.BaseURL+imagesEndpoint, token, "images",
		map[string][]byte{"notes.txt": []byte("plain text is not an image")}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	five := map[string][]byte{}
	for _, n := range []string{"1.png", "2.png", "3.png", "4.png", "5.png"} {
		five[n] = pngBytes(t)
	}
	status, _ = uploadMultipart(t, env.Client, env.BaseURL+imagesEndpoint, token, "images", five, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = uploadMultipart(t, env.Client, env.BaseURL+audioEndpoint, token, "audio",
		map[string][]byte{"long.wav": wavBytes(61)}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func uploadImages(t *testing.T, env *TestEnvironment, token string, n int) []string {
	t.Helper()

	files := map[string][]byte{}
	for i := range n {
		files[string(rune('a'+i))+".png"] = pngBytes(t)
	}
	status, body := uploadMultipart(t, env.Client, env.BaseURL+imagesEndpoint, token, "images", files, nil)
	require.Equal(t, http.StatusCreated, status, "%v", body)

	raw := body["images"].([]any)
	require.Len(t, raw, n)
	urls := make([]string, n)
	for i, u := range raw {
		urls[i] = u.(string)
		require.True(t, strings.HasPrefix(urls[i], env.BaseURL+"/api/v1/media/files/"), urls[i])
	}
	return urls
}

func uploadAudio(t *testing.T, env *TestEnvironment, token string) string {
	t.Helper()

	status, body := uploadMultipart(t, env.Client, env.BaseURL+audioEndpoint, token, "audio",
		map[string][]byte{"memo.wav": wavBytes(2)}, nil)
	require.Equal(t, http.StatusCreated, status, "%v", body)
	return body["audio"].(string)
}

func fetchStatus(t *testing.T, env *TestEnvironment, url, token string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.Client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

// verifyNotesList checks the list size and, when wantID is set, the first id.
func verifyNotesList(t *testing.T, env *TestEnvironment, headers map[string]string, path, wantID string, wantCount int) {
	t.Helper()

	listResp := makeHTTPRequest(t, "GET", env.BaseURL+path, nil, headers, http.StatusOK)
	notes := listResp["notes"].([]any)
	require.Len(t, notes, wantCount)
	if wantID != "" {
		assert.Equal(t, wantID, notes[0].(map[string]any)["id"])
	}
}

// makeHTTPRequest is a helper function to make HTTP requests with proper cleanup
func makeHTTPRequest(t *testing.T, method, url string, payload map[string]any, headers map[string]string, expectedStatus int) map[string]any {
	t.Helper()

	var body any
	if payload != nil {
		body = payload
	}
	resp, err := httpJSON(method, url, body, headers)
	require.NoError(t, err)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf(msgFailedToCloseResponseBody, err)
		}
	}()

	require.Equal(t, expectedStatus, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

// setupTestUser creates a test user and returns the auth token
func setupTestUser(t *testing.T, env *TestEnvironment, name, email, password string) string {
	t.Helper()
	return signUp(t, env.Client, env.BaseURL, name, email, password)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// wavBytes returns silent 8 kHz mono 8-bit PCM of the given length.
func wavBytes(seconds int) []byte {
	const rate = 8000
	data := bytes.Repeat([]byte{0x80}, rate*seconds)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate)) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))    // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(8))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}
