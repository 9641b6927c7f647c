package notes

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrCreateNote is returned when note creation fails.
var ErrCreateNote = errors.New("failed to create note")

// ErrUpdateNote is returned when note update fails.
var ErrUpdateNote = errors.New("failed to update note")

// ErrDeleteNote is returned when note deletion fails.
var ErrDeleteNote = errors.New("failed to delete note")

// ErrCreateNotesRepo is returned when notes repository creation fails.
var ErrCreateNotesRepo = errors.New("failed to create notes repository")

// ErrLoadNote is returned when a note cannot be read.
var ErrLoadNote = errors.New("failed to load note")

// ErrListNotes is returned when notes listing fails.
var ErrListNotes = errors.New("failed to list notes")

// ErrNoteNotFound is returned when the note does not exist or belongs to
// another user. The two cases are indistinguishable to callers.
var ErrNoteNotFound = errors.New("note not found")

// ErrValidation is wrapped by every input validation failure.
var ErrValidation = errors.New("invalid note")

// ErrMediaCleanup matches any *MediaCleanupError via errors.Is.
var ErrMediaCleanup = errors.New("media cleanup failed")

// MediaFailure is one media URL whose deletion was not confirmed.
type MediaFailure struct {
	URL string
	Err error
}

// MediaCleanupError reports media deletions that failed during an update or
// a delete. On update the note was left untouched; on delete the note record
// is gone and the listed blobs may still exist in the media store.
type MediaCleanupError struct {
	NoteID bson.ObjectID
	Failed []MediaFailure
}

func (e *MediaCleanupError) Error() string {
	return fmt.Sprintf("%s for note %s: %s", ErrMediaCleanup, e.NoteID.Hex(), strings.Join(e.URLs(), ", "))
}

// Is makes errors.Is(err, ErrMediaCleanup) true.
func (e *MediaCleanupError) Is(target error) bool {
	return target == ErrMediaCleanup
}

// Unwrap exposes the underlying media store errors.
func (e *MediaCleanupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// URLs lists the media URLs that were not confirmed deleted.
func (e *MediaCleanupError) URLs() []string {
	urls := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		urls = append(urls, f.URL)
	}
	return urls
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
