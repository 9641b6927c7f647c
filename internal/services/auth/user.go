package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is an account owning notes and media. Email is stored lower-cased.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	Name         string        `bson:"name" json:"name" example:"Ada"`
	Email        string        `bson:"email" json:"email" example:"ada@example.com"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26Z"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26Z"`
}

// UsersRepo persists accounts. Create returns ErrDuplicate for a taken email
// and FindByEmail returns ErrUserNotFound when nothing matches.
type UsersRepo interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}
