package gorm

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"reviewflow/internal/config"
	"reviewflow/internal/metrics"
	"reviewflow/internal/storage"
)

// TxManager реализует storage.TxManager поверх PostgreSQL
type TxManager struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	cancel context.CancelFunc
}

// NewTxManager подключается к БД, применяет миграции и запускает сбор
// статистики пула соединений
func NewTxManager(envConf *config.Config) (*TxManager, error) {
	db, err := ConnectDB(envConf)
	if err != nil {
		return nil, err
	}
	return newTxManager(db)
}

func newTxManager(db *gorm.DB) (*TxManager, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go metrics.StartDBStatsCollector(ctx, sqlDB, 5*time.Second)

	return &TxManager{db: db, sqlDB: sqlDB, cancel: cancel}, nil
}

// Close останавливает коллектор и закрывает пул
func (tm *TxManager) Close() error {
	tm.cancel()
	log.Info().Msg("closing database connection pool")
	return tm.sqlDB.Close()
}

// Do выполняет функцию внутри транзакции с автоматическим commit/rollback
func (tm *TxManager) Do(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	start := time.Now()

	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := fn(ctx, &transaction{db: tx})
		if err != nil {
			// GORM автоматически сделает ROLLBACK
			metrics.DBTransactionTotal.WithLabelValues("error").Inc()
			return err
		}

		// GORM автоматически сделает COMMIT
		metrics.DBTransactionTotal.WithLabelValues("success").Inc()
		return nil
	})

	metrics.DBTransactionDuration.Observe(time.Since(start).Seconds())

	return err
}

// transaction - обёртка над gorm.DB, реализует storage.Tx
type transaction struct {
	db *gorm.DB
}

func (t *transaction) ReviewRequestRepo() storage.ReviewRequestRepository {
	return NewReviewRequestRepository(t.db)
}

func (t *transaction) DraftRepo() storage.DraftRepository {
	return NewDraftRepository(t.db)
}

func (t *transaction) ChangeDescriptionRepo() storage.ChangeDescriptionRepository {
	return NewChangeDescriptionRepository(t.db)
}

func (t *transaction) GroupRepo() storage.GroupRepository {
	return NewGroupRepository(t.db)
}

func (t *transaction) UserRepo() storage.UserRepository {
	return NewUserRepository(t.db)
}

func (t *transaction) SiteRepo() storage.SiteRepository {
	return NewSiteRepository(t.db)
}

func (t *transaction) CodeRepoRepo() storage.CodeRepoRepository {
	return NewCodeRepoRepository(t.db)
}

func (t *transaction) ProfileRepo() storage.ProfileRepository {
	return NewProfileRepository(t.db)
}

func (t *transaction) DefaultReviewerRepo() storage.DefaultReviewerRepository {
	return NewDefaultReviewerRepository(t.db)
}

func (t *transaction) DiffRepo() storage.DiffRepository {
	return NewDiffRepository(t.db)
}

func (t *transaction) AttachmentRepo() storage.AttachmentRepository {
	return NewAttachmentRepository(t.db)
}

func (t *transaction) ReviewRepo() storage.ReviewRepository {
	return NewReviewRepository(t.db)
}

func (t *transaction) Counters() storage.CounterStore {
	return NewCounterStore(t.db)
}
