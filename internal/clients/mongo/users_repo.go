package mongo

import (
	"context"
	"errors"
	"fmt"

	"note-keeper/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersRepo stores accounts in the "users" collection.
type UsersRepo struct {
	collection *mongo.Collection
}

// NewUsersRepo ensures the unique email index and returns the repository.
func NewUsersRepo(ctx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection("users")

	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("create users email index: %w", err)
	}

	return &UsersRepo{collection: collection}, nil
}

// Create inserts user, mapping a unique-index clash to auth.ErrDuplicate.
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail looks up an account by its stored (lower-cased) email.
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user auth.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, auth.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
