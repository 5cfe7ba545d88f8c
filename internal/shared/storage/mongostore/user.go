package mongostore

import (
	"context"
	"time"

	"auth-server/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	user.Email = model.NormalizeEmail(user.Email)
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: model.NormalizeEmail(email)}})
}

func (s *Store) GetUserByResetLink(ctx context.Context, link string) (*model.User, error) {
	if link == "" {
		return nil, nil
	}
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "resetPasswordLink", Value: link}})
}

func (s *Store) SetResetPasswordLink(ctx context.Context, id, link string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "resetPasswordLink", Value: link},
		{Key: "updated_at", Value: time.Now().UTC()},
	})
}

func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	return updateFields(ctx, s.col(ColUsers), user.ID, bson.D{
		{Key: "name", Value: user.Name},
		{Key: "role", Value: user.Role},
		{Key: "hashed_password", Value: user.HashedPassword},
		{Key: "salt", Value: user.Salt},
		{Key: "resetPasswordLink", Value: user.ResetPasswordLink},
		{Key: "updated_at", Value: user.UpdatedAt},
	})
}
