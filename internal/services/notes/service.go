package notes

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"note-keeper/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

const defaultDeleteConcurrency = 4

// Service handles notes business logic
type Service struct {
	repo              Repository
	media             MediaStore
	log               *slog.Logger
	deleteConcurrency int
}

// NewService creates a new notes service. deleteConcurrency bounds the number
// of media deletions in flight for a single request.
func NewService(repo Repository, media MediaStore, log *slog.Logger, deleteConcurrency int) *Service {
	if deleteConcurrency <= 0 {
		deleteConcurrency = defaultDeleteConcurrency
	}
	return &Service{
		repo:              repo,
		media:             media,
		log:               log,
		deleteConcurrency: deleteConcurrency,
	}
}

// CreateNoteRequest represents a note creation request
type CreateNoteRequest struct {
	Title       string   `json:"title" validate:"required" example:"Groceries"`
	Content     string   `json:"content" validate:"required" example:"milk, eggs"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=4,dive,http_url" example:"https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/01JX.png"`
	Audio       string   `json:"audio,omitempty" validate:"omitempty,http_url" example:"https://res.cloudinary.com/demo/video/upload/v1/Notes-app-audio/01JX.mp3"`
	IsFavourite bool     `json:"is_favourite" example:"false"`
}

// UpdateNoteRequest represents a partial note update. Image and audio fields
// reconcile the note's attachments against the media store. Added images are
// appended and the note keeps only the newest MaxImages. An empty audio URL
// leaves the stored one in place.
type UpdateNoteRequest struct {
	Title           *string  `json:"title,omitempty" example:"Groceries for Sunday"`
	Content         *string  `json:"content,omitempty" example:"milk, eggs, bread"`
	IsFavourite     *bool    `json:"is_favourite,omitempty" example:"true"`
	AddImageURLs    []string `json:"add_images,omitempty" validate:"omitempty,dive,http_url"`
	RemoveImageURLs []string `json:"remove_images,omitempty" validate:"omitempty,dive,http_url"`
	NewAudioURL     *string  `json:"audio,omitempty"`
	RemoveAudio     bool     `json:"remove_audio,omitempty" example:"false"`
}

// NoteResponse represents a single note response
type NoteResponse struct {
	Note *Note `json:"note"`
}

// ListNotesResponse represents a list of notes response
type ListNotesResponse struct {
	Notes []*Note `json:"notes"`
}

// Create creates a new note
func (s *Service) Create(ctx context.Context, userID bson.ObjectID, req CreateNoteRequest) (*NoteResponse, error) {
	title := sanitize.Title(req.Title)
	content := sanitize.Body(req.Content)
	if title == "" {
		return nil, validationError("title is required")
	}
	if content == "" {
		return nil, validationError("content is required")
	}
	if len(req.Images) > MaxImages {
		return nil, validationError("a note can hold at most %d images", MaxImages)
	}
	for _, u := range req.Images {
		if !isMediaURL(u) {
			return nil, validationError("invalid image url %q", u)
		}
	}
	if req.Audio != "" && !isMediaURL(req.Audio) {
		return nil, validationError("invalid audio url %q", req.Audio)
	}

	now := time.Now().UTC()
	note := &Note{
		ID:          bson.NewObjectID(),
		UserID:      userID,
		Title:       title,
		Content:     content,
		Images:      dedupe(req.Images),
		Audio:       req.Audio,
		IsFavourite: req.IsFavourite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, note); err != nil {
		s.log.Error(ErrCreateNote.Error(), "error", err, "user_id", userID.Hex())
		return nil, ErrCreateNote
	}

	return &NoteResponse{Note: note}, nil
}

// Get returns a single note belonging to the user
func (s *Service) Get(ctx context.Context, userID, noteID bson.ObjectID) (*NoteResponse, error) {
	note, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	return &NoteResponse{Note: note}, nil
}

// ListAll returns every note of the user, newest first
func (s *Service) ListAll(ctx context.Context, userID bson.ObjectID) (*ListNotesResponse, error) {
	return s.list(ctx, userID, ListFilter{})
}

// ListFavourites returns the user's favourite notes, newest first
func (s *Service) ListFavourites(ctx context.Context, userID bson.ObjectID) (*ListNotesResponse, error) {
	return s.list(ctx, userID, ListFilter{FavouritesOnly: true})
}

func (s *Service) list(ctx context.Context, userID bson.ObjectID, filter ListFilter) (*ListNotesResponse, error) {
	notes, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		s.log.Error(ErrListNotes.Error(), "error", err, "user_id", userID.Hex(), "favourites_only", filter.FavouritesOnly)
		return nil, ErrListNotes
	}
	if notes == nil {
		notes = []*Note{}
	}
	for _, n := range notes {
		normalize(n)
	}
	return &ListNotesResponse{Notes: notes}, nil
}

// sanitizedUpdateNote creates an UpdateNote with sanitized title and content
func sanitizedUpdateNote(req UpdateNoteRequest) (UpdateNote, error) {
	patch := UpdateNote(req)

	if patch.Title != nil {
		sanitized := sanitize.Title(*patch.Title)
		patch.Title = &sanitized
	}
	if patch.Content != nil {
		sanitized := sanitize.Body(*patch.Content)
		patch.Content = &sanitized
	}
	for _, u := range patch.AddImageURLs {
		if !isMediaURL(u) {
			return UpdateNote{}, validationError("invalid image url %q", u)
		}
	}
	if patch.NewAudioURL != nil && *patch.NewAudioURL != "" && !isMediaURL(*patch.NewAudioURL) {
		return UpdateNote{}, validationError("invalid audio url %q", *patch.NewAudioURL)
	}

	return patch, nil
}

// Update applies a patch to a note belonging to the user. Media URLs the note
// stops referencing are deleted from the media store first; if any deletion
// fails the note is left untouched and a *MediaCleanupError is returned.
func (s *Service) Update(ctx context.Context, userID, noteID bson.ObjectID, req UpdateNoteRequest) (*NoteResponse, error) {
	patch, err := sanitizedUpdateNote(req)
	if err != nil {
		return nil, err
	}

	current, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	p := planUpdate(current, patch)
	if !p.changed {
		return &NoteResponse{Note: current}, nil
	}

	if failed := s.releaseMedia(ctx, userID, p.release); len(failed) > 0 {
		s.log.Warn("media cleanup failed, note left unchanged",
			"user_id", userID.Hex(), "note_id", noteID.Hex(), "failed", len(failed))
		return nil, &MediaCleanupError{NoteID: noteID, Failed: failed}
	}

	p.note.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Replace(ctx, &p.note)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note vanished during update", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrUpdateNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrUpdateNote
	}
	normalize(updated)

	return &NoteResponse{Note: updated}, nil
}

// Delete deletes a note belonging to the user together with its media.
// Media deletion is best effort: the note record is removed even when some
// blobs could not be deleted, and those are reported via *MediaCleanupError.
func (s *Service) Delete(ctx context.Context, userID, noteID bson.ObjectID) error {
	note, err := s.find(ctx, userID, noteID)
	if err != nil {
		return err
	}

	failed := s.releaseMedia(ctx, userID, note.mediaURLs())

	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found for delete", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return ErrNoteNotFound
		}
		s.log.Error(ErrDeleteNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return ErrDeleteNote
	}

	if len(failed) > 0 {
		s.log.Warn("note deleted with leftover media",
			"user_id", userID.Hex(), "note_id", noteID.Hex(), "failed", len(failed))
		return &MediaCleanupError{NoteID: noteID, Failed: failed}
	}
	return nil
}

func (s *Service) find(ctx context.Context, userID, noteID bson.ObjectID) (*Note, error) {
	note, err := s.repo.FindByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			s.log.Info("note not found", "user_id", userID.Hex(), "note_id", noteID.Hex())
			return nil, ErrNoteNotFound
		}
		s.log.Error(ErrLoadNote.Error(), "error", err, "user_id", userID.Hex(), "note_id", noteID.Hex())
		return nil, ErrLoadNote
	}
	normalize(note)
	return note, nil
}

// releaseMedia deletes every url on behalf of ownerID concurrently and
// reports the ones that failed. A failure does not stop the remaining deletions.
func (s *Service) releaseMedia(ctx context.Context, ownerID bson.ObjectID, urls []string) []MediaFailure {
	if len(urls) == 0 {
		return nil
	}

	errs := make([]error, len(urls))
	var g errgroup.Group
	g.SetLimit(s.deleteConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			errs[i] = s.media.Delete(ctx, ownerID, u)
			return nil
		})
	}
	_ = g.Wait()

	var failed []MediaFailure
	for i, err := range errs {
		if err != nil {
			s.log.Warn("media delete failed", "url", urls[i], "error", err)
			failed = append(failed, MediaFailure{URL: urls[i], Err: err})
		}
	}
	return failed
}

func normalize(n *Note) {
	if n.Images == nil {
		n.Images = []string{}
	}
}

func isMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
