package gorm

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

// foreignKeyViolation - код PostgreSQL для нарушения внешнего ключа
const foreignKeyViolation = "23503"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == storage.UniqueViolation {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return true
	}
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// translate приводит ошибку gorm/pgx к ошибке хранилища и пишет её в лог.
// onDuplicate - во что превращается нарушение уникальности для этой операции.
func translate(ctx context.Context, err error, op string, id int64, onDuplicate error) error {
	if err == nil {
		return nil
	}
	requestID := logger.GetRequestID(ctx)

	var mapped error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		mapped = storage.ErrNotFound
	case isForeignKeyViolation(err):
		mapped = storage.ErrNotFound
	case isUniqueViolation(err):
		mapped = onDuplicate
	}

	if mapped != nil {
		log.Warn().
			Str("request_id", requestID).
			Str("layer", "storage").
			Str("op", op).
			Int64("id", id).
			AnErr("cause", err).
			Msg(mapped.Error())
		return mapped
	}

	log.Error().
		Err(err).
		Str("request_id", requestID).
		Str("layer", "storage").
		Str("op", op).
		Int64("id", id).
		Msg("database error")
	return err
}

// notFoundIfNone превращает пустой результат UPDATE/DELETE в ErrNotFound
func notFoundIfNone(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
