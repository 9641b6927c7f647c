package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"note-keeper/cmd/server/handlers/httperr"
	"note-keeper/cmd/server/testutil"
	"note-keeper/internal/services/notes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MockNotesService mocks the notes service
type MockNotesService struct {
	mock.Mock
}

func (m *MockNotesService) Create(ctx context.Context, userID bson.ObjectID, req notes.CreateNoteRequest) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) Get(ctx context.Context, userID, noteID bson.ObjectID) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, noteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) ListAll(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.ListNotesResponse), args.Error(1)
}

func (m *MockNotesService) ListFavourites(ctx context.Context, userID bson.ObjectID) (*notes.ListNotesResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.ListNotesResponse), args.Error(1)
}

func (m *MockNotesService) Update(ctx context.Context, userID, noteID bson.ObjectID, req notes.UpdateNoteRequest) (*notes.NoteResponse, error) {
	args := m.Called(ctx, userID, noteID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notes.NoteResponse), args.Error(1)
}

func (m *MockNotesService) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	args := m.Called(ctx, userID, noteID)
	return args.Error(0)
}

type notesSetup struct {
	svc    *MockNotesService
	app    *fiber.App
	userID bson.ObjectID
}

func setupNotes(t *testing.T) *notesSetup {
	t.Helper()

	userID := bson.NewObjectID()
	svc := &MockNotesService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(svc, testutil.CreateTestValidator(t))

	grp := app.Group("/api/v1/notes", testutil.WithUser(userID.Hex()))
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/favourites", h.ListFavourites)
	grp.Get("/:id", h.Get)
	grp.Put("/:id", h.Update)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)

	return &notesSetup{svc: svc, app: app, userID: userID}
}

func sampleNote(userID bson.ObjectID) *notes.Note {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &notes.Note{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Title:     "Groceries",
		Content:   "milk, eggs",
		Images:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func decode[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(body).Decode(&v))
	return v
}

func TestCreateNote(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		mockErr    error
		callsSvc   bool
		wantStatus int
	}{
		{
			name:       "ok",
			body:       map[string]any{"title": "Groceries", "content": "milk, eggs", "images": []string{"https://cdn.example.com/a.png"}},
			callsSvc:   true,
			wantStatus: 201,
		},
		{
			name:       "missing title",
			body:       map[string]any{"content": "milk"},
			wantStatus: 400,
		},
		{
			name:       "too many images",
			body:       map[string]any{"title": "t", "content": "c", "images": []string{"https://a/1", "https://a/2", "https://a/3", "https://a/4", "https://a/5"}},
			wantStatus: 400,
		},
		{
			name:       "non url image",
			body:       map[string]any{"title": "t", "content": "c", "images": []string{"not a url"}},
			wantStatus: 400,
		},
		{
			name:       "blank after sanitizing",
			body:       map[string]any{"title": "<b></b>", "content": "c"},
			callsSvc:   true,
			mockErr:    fmt.Errorf("%w: title is required", notes.ErrValidation),
			wantStatus: 400,
		},
		{
			name:       "repository failure",
			body:       map[string]any{"title": "t", "content": "c"},
			callsSvc:   true,
			mockErr:    notes.ErrCreateNote,
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupNotes(t)
			note := sampleNote(s.userID)
			if tt.callsSvc {
				if tt.mockErr != nil {
					s.svc.On("Create", mock.Anything, s.userID, mock.AnythingOfType("notes.CreateNoteRequest")).Return(nil, tt.mockErr).Once()
				} else {
					s.svc.On("Create", mock.Anything, s.userID, mock.AnythingOfType("notes.CreateNoteRequest")).Return(&notes.NoteResponse{Note: note}, nil).Once()
				}
			}

			resp, err := s.app.Test(testutil.CreateJSONRequest("POST", "/api/v1/notes/", tt.body), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == 201 {
				got := decode[notes.NoteResponse](t, resp.Body)
				assert.Equal(t, note.ID, got.Note.ID)
			}
			if !tt.callsSvc {
				s.svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			}
			s.svc.AssertExpectations(t)
		})
	}
}

func TestListNotes(t *testing.T) {
	s := setupNotes(t)
	fav := sampleNote(s.userID)
	fav.IsFavourite = true
	plain := sampleNote(s.userID)

	s.svc.On("ListAll", mock.Anything, s.userID).Return(&notes.ListNotesResponse{Notes: []*notes.Note{fav, plain}}, nil).Once()
	s.svc.On("ListFavourites", mock.Anything, s.userID).Return(&notes.ListNotesResponse{Notes: []*notes.Note{fav}}, nil).Once()

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/v1/notes/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode[notes.ListNotesResponse](t, resp.Body).Notes, 2)

	resp, err = s.app.Test(httptest.NewRequest("GET", "/api/v1/notes/favourites", nil), -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	got := decode[notes.ListNotesResponse](t, resp.Body)
	require.Len(t, got.Notes, 1)
	assert.True(t, got.Notes[0].IsFavourite)

	s.svc.AssertExpectations(t)
}

func TestGetNote(t *testing.T) {
	s := setupNotes(t)
	note := sampleNote(s.userID)
	missing := bson.NewObjectID()

	s.svc.On("Get", mock.Anything, s.userID, note.ID).Return(&notes.NoteResponse{Note: note}, nil).Once()
	s.svc.On("Get", mock.Anything, s.userID, missing).Return(nil, notes.ErrNoteNotFound).Once()

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: "/api/v1/notes/" + note.ID.Hex(), wantStatus: 200},
		{path: "/api/v1/notes/" + missing.Hex(), wantStatus: 404},
		{path: "/api/v1/notes/not-an-id", wantStatus: 404},
	}
	for _, tt := range tests {
		resp, err := s.app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode, tt.path)
	}

	s.svc.AssertExpectations(t)
}

func TestUpdateNote(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       map[string]any
		mockErr    error
		callsSvc   bool
		wantStatus int
		wantFailed []string
	}{
		{
			name:       "patch favourite",
			method:     "PATCH",
			body:       map[string]any{"is_favourite": true},
			callsSvc:   true,
			wantStatus: 200,
		},
		{
			name:       "put with attachments",
			method:     "PUT",
			body:       map[string]any{"add_images": []string{"https://cdn.example.com/b.png"}, "remove_images": []string{"https://cdn.example.com/a.png"}},
			callsSvc:   true,
			wantStatus: 200,
		},
		{
			name:       "invalid audio url",
			method:     "PATCH",
			body:       map[string]any{"audio": "nope"},
			callsSvc:   true,
			mockErr:    fmt.Errorf("%w: invalid audio url", notes.ErrValidation),
			wantStatus: 400,
		},
		{
			name:       "empty audio url is not rejected",
			method:     "PATCH",
			body:       map[string]any{"audio": ""},
			callsSvc:   true,
			wantStatus: 200,
		},
		{
			name:   "more than four added images reach the service",
			method: "PATCH",
			body: map[string]any{"add_images": []string{
				"https://cdn.example.com/1.png", "https://cdn.example.com/2.png", "https://cdn.example.com/3.png",
				"https://cdn.example.com/4.png", "https://cdn.example.com/5.png",
			}},
			callsSvc:   true,
			wantStatus: 200,
		},
		{
			name:       "relative added image url",
			method:     "PATCH",
			body:       map[string]any{"add_images": []string{"/b.png"}},
			wantStatus: 400,
		},
		{
			name:       "not found",
			method:     "PATCH",
			body:       map[string]any{"title": "x"},
			callsSvc:   true,
			mockErr:    notes.ErrNoteNotFound,
			wantStatus: 404,
		},
		{
			name:     "media cleanup failed",
			method:   "PATCH",
			body:     map[string]any{"remove_audio": true},
			callsSvc: true,
			mockErr: &notes.MediaCleanupError{Failed: []notes.MediaFailure{
				{URL: "https://cdn.example.com/a.mp3", Err: assert.AnError},
			}},
			wantStatus: 502,
			wantFailed: []string{"https://cdn.example.com/a.mp3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupNotes(t)
			note := sampleNote(s.userID)
			if tt.callsSvc {
				if tt.mockErr != nil {
					s.svc.On("Update", mock.Anything, s.userID, note.ID, mock.AnythingOfType("notes.UpdateNoteRequest")).Return(nil, tt.mockErr).Once()
				} else {
					s.svc.On("Update", mock.Anything, s.userID, note.ID, mock.AnythingOfType("notes.UpdateNoteRequest")).Return(&notes.NoteResponse{Note: note}, nil).Once()
				}
			}

			resp, err := s.app.Test(testutil.CreateJSONRequest(tt.method, "/api/v1/notes/"+note.ID.Hex(), tt.body), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantFailed != nil {
				got := decode[httperr.Cleanup](t, resp.Body)
				assert.Equal(t, tt.wantFailed, got.FailedURLs)
				assert.Equal(t, notes.ErrMediaCleanup.Error(), got.Err)
			}
			s.svc.AssertExpectations(t)
		})
	}
}

func TestUpdateNotePassesPatch(t *testing.T) {
	s := setupNotes(t)
	note := sampleNote(s.userID)

	s.svc.On("Update", mock.Anything, s.userID, note.ID, mock.MatchedBy(func(req notes.UpdateNoteRequest) bool {
		return req.IsFavourite != nil && !*req.IsFavourite &&
			req.Title == nil &&
			req.RemoveAudio &&
			len(req.AddImageURLs) == 1
	})).Return(&notes.NoteResponse{Note: note}, nil).Once()

	body := map[string]any{
		"is_favourite": false,
		"remove_audio": true,
		"add_images":   []string{"https://cdn.example.com/c.png"},
	}
	resp, err := s.app.Test(testutil.CreateJSONRequest("PATCH", "/api/v1/notes/"+note.ID.Hex(), body), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	s.svc.AssertExpectations(t)
}

func TestDeleteNote(t *testing.T) {
	tests := []struct {
		name       string
		mockErr    error
		wantStatus int
		wantFailed []string
	}{
		{name: "ok", wantStatus: 200},
		{name: "not found", mockErr: notes.ErrNoteNotFound, wantStatus: 404},
		{
			name: "partial media cleanup",
			mockErr: &notes.MediaCleanupError{Failed: []notes.MediaFailure{
				{URL: "https://cdn.example.com/a.png", Err: assert.AnError},
				{URL: "https://cdn.example.com/b.png", Err: assert.AnError},
			}},
			wantStatus: 207,
			wantFailed: []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
		},
		{name: "repository failure", mockErr: notes.ErrDeleteNote, wantStatus: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupNotes(t)
			noteID := bson.NewObjectID()
			s.svc.On("Delete", mock.Anything, s.userID, noteID).Return(tt.mockErr).Once()

			resp, err := s.app.Test(httptest.NewRequest("DELETE", "/api/v1/notes/"+noteID.Hex(), nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			switch {
			case tt.wantFailed != nil:
				got := decode[httperr.Cleanup](t, resp.Body)
				assert.Equal(t, tt.wantFailed, got.FailedURLs)
				assert.NotEmpty(t, got.Message)
			case tt.wantStatus == 200:
				got := decode[MessageResponse](t, resp.Body)
				assert.Equal(t, "Note deleted", got.Message)
			}
			s.svc.AssertExpectations(t)
		})
	}
}

func TestNotesRequireUser(t *testing.T) {
	svc := &MockNotesService{}
	app := testutil.CreateTestApp(t)
	h := NewHandlers(svc, testutil.CreateTestValidator(t))
	app.Get("/notes", h.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/notes", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
	svc.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
}
