package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// UserByID возвращает пользователя по идентификатору.
// Используется хендлером "текущий пользователь" после прохождения гейта.
func (s *Service) UserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const op = "service.users.UserByID"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
