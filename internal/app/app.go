// Package app собирает зависимости сервиса из конфигурации; используется cmd/api и cmd/reviewctl.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/changeset/github"
	"reviewflow/internal/config"
	"reviewflow/internal/service"
	"reviewflow/internal/storage"
	storageGorm "reviewflow/internal/storage/gorm"
	"reviewflow/internal/storage/memory"
)

// App - собранное приложение
type App struct {
	TxManager storage.TxManager
	Service   *service.Service

	closeFn func() error
}

// OpenStorage создаёт хранилище, выбранное в APP_STORAGE
func OpenStorage(cfg *config.Config) (storage.TxManager, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, data will be lost on restart")
		return memory.New(), func() error { return nil }, nil
	case config.StoragePostgres:
		tm, err := storageGorm.NewTxManager(cfg)
		if err != nil {
			return nil, nil, err
		}
		return tm, tm.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// New открывает хранилище и создаёт сервис. GitHub подключается, только если задан токен или owner.
func New(cfg *config.Config) (*App, error) {
	txManager, closeFn, err := OpenStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var opts []service.Option
	if cfg.GitHub.Token != "" || cfg.GitHub.Owner != "" {
		source, err := github.NewSource(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.BaseURL)
		if err != nil {
			_ = closeFn()
			return nil, fmt.Errorf("init github changeset source: %w", err)
		}
		opts = append(opts, service.WithChangesetSource(source))
		log.Info().Str("owner", cfg.GitHub.Owner).Msg("github changeset source enabled")
	}

	return &App{
		TxManager: txManager,
		Service:   service.New(txManager, opts...),
		closeFn:   closeFn,
	}, nil
}

// Close освобождает соединения с хранилищем
func (a *App) Close() error {
	return a.closeFn()
}
