// Package docs NoteKeeper API
//
// @title  NoteKeeper API
// @version 0.2.0
// @description Personal notes with image and audio attachments.
// @host      localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browsers may rely on the jwt cookie instead.
package docs

import (
	_ "note-keeper/cmd/server/handlers/httperr"
	_ "note-keeper/internal/services/auth"
	_ "note-keeper/internal/services/media"
	_ "note-keeper/internal/services/notes"
)
