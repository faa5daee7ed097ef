package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/lib/apperr"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/store"
)

const DefaultSuggestionLimit = 3

type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

// Suggestions returns users current is not connected with, excluding current
func (s *UserService) Suggestions(ctx context.Context, current *models.User, limit int64) ([]models.UserDto, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	exclude := make([]primitive.ObjectID, 0, len(current.Connections)+1)
	exclude = append(exclude, current.Id)
	exclude = append(exclude, current.Connections...)

	users, err := s.users.SuggestUsers(ctx, exclude, limit)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	result := make([]models.UserDto, 0, len(users))
	for i := range users {
		result = append(result, users[i].PublicProfile())
	}
	return result, nil
}

// Profile returns the user with the given username, password removed
func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, apperr.Validation("Username is required")
	}
	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	user.Password = ""
	return user, nil
}
