package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxImages is the most images a note may reference at any time.
const MaxImages = 4

// Note is a user's note with its text and media attachments.
type Note struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	UserID      bson.ObjectID `bson:"user_id" json:"user_id" example:"683cdb8aa96ad71e8e075bd0"`
	Title       string        `bson:"title" json:"title" example:"Groceries"`
	Content     string        `bson:"content" json:"content" example:"milk, eggs"`
	Images      []string      `bson:"images" json:"images" example:"https://res.cloudinary.com/demo/image/upload/v1/Notes-app-images/01JX.png"`
	Audio       string        `bson:"audio,omitempty" json:"audio,omitempty" example:"https://res.cloudinary.com/demo/video/upload/v1/Notes-app-audio/01JX.mp3"`
	IsFavourite bool          `bson:"is_favourite" json:"is_favourite" example:"false"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// mediaURLs returns every media URL the note references, images first.
func (n *Note) mediaURLs() []string {
	urls := make([]string, 0, len(n.Images)+1)
	urls = append(urls, n.Images...)
	if n.Audio != "" {
		urls = append(urls, n.Audio)
	}
	return urls
}

// UpdateNote is a sanitized patch. Nil or empty text fields leave the stored
// value untouched.
type UpdateNote struct {
	Title           *string
	Content         *string
	IsFavourite     *bool
	AddImageURLs    []string
	RemoveImageURLs []string
	NewAudioURL     *string
	RemoveAudio     bool
}

// ListFilter narrows a listing of a user's notes.
type ListFilter struct {
	FavouritesOnly bool
}
