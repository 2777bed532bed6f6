package storage

import "errors"

// Storage layer errors
var (
	// ErrNotFound возвращается когда запрашиваемый ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists возвращается при попытке создать ресурс который уже существует
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrConflict возвращается при нарушении уникальности (changenum+repository, site+local_id)
	ErrConflict = errors.New("data conflict")

	// ErrUnknownCounter возвращается для счётчика, который хранилище не знает
	ErrUnknownCounter = errors.New("unknown counter")
)

const (
	// UniqueViolation is a PostgreSQL error code for unique constraint violations.
	UniqueViolation = "23505"
)
