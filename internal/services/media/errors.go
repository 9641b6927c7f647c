package media

import "errors"

// ErrNoFiles is returned when an upload carries no file.
var ErrNoFiles = errors.New("no file uploaded")

// ErrTooManyFiles is returned when an upload carries more files than allowed.
var ErrTooManyFiles = errors.New("too many files")

// ErrUnsupportedType is returned when the sniffed content type is not accepted
// or the file does not decode as its type.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrFileTooLarge is returned when a file exceeds its size limit.
var ErrFileTooLarge = errors.New("file too large")

// ErrAudioTooLong is returned when an audio clip exceeds the duration limit.
var ErrAudioTooLong = errors.New("audio too long")

// ErrDurationRequired is returned for audio formats whose duration cannot be
// measured server-side when the client did not declare one.
var ErrDurationRequired = errors.New("audio duration required")

// ErrUpload is returned when the media store rejects an upload.
var ErrUpload = errors.New("failed to upload media")

// ErrNotFound is returned when a stored file does not exist or belongs to
// another user.
var ErrNotFound = errors.New("media file not found")
