package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

// RegisterUser создаёт или обновляет пользователя.
// Обычный пользователь может зарегистрировать только себя.
func (s *Service) RegisterUser(outerCtx context.Context, actor *domain.User, input *domain.RegisterUserInput) (*domain.User, error) {
	const op = "service.RegisterUser"
	defer observe(op)()
	requestID := logger.GetRequestID(outerCtx)

	if err := requireUser(actor); err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}
	if !actor.Superuser && input.ID != actor.ID {
		return nil, s.formatError(outerCtx, op, domain.ErrPermissionDenied)
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, s.formatError(outerCtx, op, domain.InvalidArgument("username is required"))
	}

	user := &domain.User{
		ID:       input.ID,
		Username: username,
		Email:    strings.TrimSpace(input.Email),
	}

	err := s.txmgr.Do(outerCtx, func(ctx context.Context, tx storage.Tx) error {
		return tx.UserRepo().Upsert(ctx, user)
	})
	if err != nil {
		return nil, s.formatError(outerCtx, op, err)
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "service").
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user registered")

	return user, nil
}
