package storage

import (
	"context"

	"reviewflow/internal/domain"
)

// TxManager управляет транзакциями базы данных
//
//go:generate mockery --name=TxManager --output=../mocks --outpkg=mocks --filename=tx_manager_mock.go
type TxManager interface {
	// Do выполняет функцию fn внутри транзакции
	// Если fn возвращает ошибку, транзакция откатывается
	// Иначе транзакция коммитится
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx представляет транзакцию с доступом к репозиториям
type Tx interface {
	ReviewRequestRepo() ReviewRequestRepository
	DraftRepo() DraftRepository
	ChangeDescriptionRepo() ChangeDescriptionRepository
	GroupRepo() GroupRepository
	UserRepo() UserRepository
	SiteRepo() SiteRepository
	CodeRepoRepo() CodeRepoRepository
	ProfileRepo() ProfileRepository
	DefaultReviewerRepo() DefaultReviewerRepository
	DiffRepo() DiffRepository
	AttachmentRepo() AttachmentRepository
	ReviewRepo() ReviewRepository
	Counters() CounterStore
}

// ReviewRequestRepository определяет операции с review requests
type ReviewRequestRepository interface {
	// Create создаёт review request и заполняет ID
	Create(ctx context.Context, rr *domain.ReviewRequest) error

	// GetByID возвращает review request вместе с целями, вложениями и историей
	GetByID(ctx context.Context, id int64) (*domain.ReviewRequest, error)

	// Save сохраняет скалярные поля и заменяет все реляционные наборы
	Save(ctx context.Context, rr *domain.ReviewRequest) error

	// Delete удаляет review request
	Delete(ctx context.Context, id int64) error

	// NextLocalID возвращает следующий local id для сайта
	NextLocalID(ctx context.Context, siteID int64) (int64, error)
}

// DraftRepository определяет операции с черновиками
type DraftRepository interface {
	// GetByRequestID возвращает черновик или ErrNotFound
	GetByRequestID(ctx context.Context, requestID int64) (*domain.ReviewRequestDraft, error)

	// CreateIfAbsent атомарно создаёт черновик. Если черновик уже есть,
	// возвращает существующий и created == false.
	CreateIfAbsent(ctx context.Context, draft *domain.ReviewRequestDraft) (*domain.ReviewRequestDraft, bool, error)

	// Save сохраняет поля и наборы черновика
	Save(ctx context.Context, draft *domain.ReviewRequestDraft) error

	// Delete удаляет черновик review request
	Delete(ctx context.Context, requestID int64) error
}

// ChangeDescriptionRepository определяет операции с историей изменений
type ChangeDescriptionRepository interface {
	// Save создаёт или обновляет запись
	Save(ctx context.Context, cd *domain.ChangeDescription) error

	// LatestPublic возвращает последнюю публичную запись review request
	LatestPublic(ctx context.Context, requestID int64) (*domain.ChangeDescription, error)

	// DeleteByRequest удаляет историю review request
	DeleteByRequest(ctx context.Context, requestID int64) error
}

// GroupRepository определяет операции с группами
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id int64) (*domain.Group, error)

	// GetByNames возвращает группы сайта по именам; неизвестные имена дают ErrNotFound
	GetByNames(ctx context.Context, siteID *int64, names []string) ([]domain.Group, error)

	// GetByIDs возвращает группы по id
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Group, error)

	// ListBySite возвращает все группы сайта с участниками
	ListBySite(ctx context.Context, siteID *int64) ([]domain.Group, error)

	// ListByMember возвращает группы сайта, в которых состоит пользователь
	ListByMember(ctx context.Context, siteID *int64, userID int64) ([]domain.Group, error)

	AddMember(ctx context.Context, groupID, userID int64) error
}

// UserRepository определяет операции с пользователями
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsernames возвращает пользователей; неизвестные имена дают ErrNotFound
	GetByUsernames(ctx context.Context, usernames []string) ([]domain.User, error)

	GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error)

	// Upsert создаёт пользователя или обновляет имя и почту
	Upsert(ctx context.Context, user *domain.User) error
}

// SiteRepository определяет операции с сайтами
type SiteRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Site, error)
}

// CodeRepoRepository определяет операции с репозиториями кода
type CodeRepoRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Repository, error)
}

// ProfileRepository определяет операции с профилями пользователя на сайте
type ProfileRepository interface {
	// Ensure возвращает профиль, создавая его при отсутствии
	Ensure(ctx context.Context, userID int64, siteID *int64) (*domain.SiteProfile, error)

	// DirectIncomingIDs возвращает профили сайта для указанных пользователей
	DirectIncomingIDs(ctx context.Context, siteID *int64, userIDs []int64) ([]int64, error)

	// TotalIncomingIDs возвращает профили сайта для пользователей или участников групп
	TotalIncomingIDs(ctx context.Context, siteID *int64, userIDs, groupIDs []int64) ([]int64, error)

	// StarredIDs возвращает профили сайта, добавившие review request в избранное
	StarredIDs(ctx context.Context, siteID *int64, requestID int64) ([]int64, error)

	// Star добавляет review request в избранное; false, если уже был
	Star(ctx context.Context, profileID, requestID int64) (bool, error)

	// Unstar убирает review request из избранного; false, если не было
	Unstar(ctx context.Context, profileID, requestID int64) (bool, error)

	// DeleteStars удаляет review request из всех избранных
	DeleteStars(ctx context.Context, requestID int64) error
}

// DefaultReviewerRepository определяет операции с правилами default reviewers
type DefaultReviewerRepository interface {
	Create(ctx context.Context, rule *domain.DefaultReviewer) error

	// ListBySite возвращает правила сайта
	ListBySite(ctx context.Context, siteID *int64) ([]domain.DefaultReviewer, error)
}

// DiffRepository определяет операции с diff
type DiffRepository interface {
	// CreateHistory создаёт контейнер истории diff
	CreateHistory(ctx context.Context) (int64, error)

	// CreateDiffSet создаёт diffset вместе с файлами
	CreateDiffSet(ctx context.Context, ds *domain.DiffSet) error

	GetDiffSet(ctx context.Context, id int64) (*domain.DiffSet, error)

	// CountInHistory возвращает количество diffset в истории
	CountInHistory(ctx context.Context, historyID int64) (int, error)

	// MoveToHistory переносит diffset в историю review request
	MoveToHistory(ctx context.Context, diffSetID, historyID int64) error
}

// AttachmentRepository определяет операции со скриншотами и файлами
type AttachmentRepository interface {
	CreateScreenshot(ctx context.Context, s *domain.Screenshot) error
	SaveScreenshot(ctx context.Context, s *domain.Screenshot) error
	CreateFileAttachment(ctx context.Context, f *domain.FileAttachment) error
	SaveFileAttachment(ctx context.Context, f *domain.FileAttachment) error
}

// ReviewRepository определяет операции с ревью и комментариями
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error

	// GetByID возвращает ревью вместе с комментариями
	GetByID(ctx context.Context, id int64) (*domain.Review, error)

	Save(ctx context.Context, review *domain.Review) error

	// ListByRequest возвращает все ревью и ответы review request
	ListByRequest(ctx context.Context, requestID int64) ([]domain.Review, error)

	// DeleteByRequest удаляет ревью и их комментарии
	DeleteByRequest(ctx context.Context, requestID int64) error

	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, id int64) (*domain.Comment, error)
	SaveComment(ctx context.Context, comment *domain.Comment) error
}

// Counter - кэшированный агрегат
type Counter string

const (
	CounterGroupIncoming          Counter = "group_incoming_request_count"
	CounterProfileDirectIncoming  Counter = "direct_incoming_request_count"
	CounterProfileTotalIncoming   Counter = "total_incoming_request_count"
	CounterProfilePendingOutgoing Counter = "pending_outgoing_request_count"
	CounterProfileTotalOutgoing   Counter = "total_outgoing_request_count"
	CounterProfileStarredPublic   Counter = "starred_public_request_count"
	CounterShipIt                 Counter = "shipit_count"
)

// AllCounters - все счётчики в порядке пересчёта
var AllCounters = []Counter{
	CounterGroupIncoming,
	CounterProfileDirectIncoming,
	CounterProfileTotalIncoming,
	CounterProfilePendingOutgoing,
	CounterProfileTotalOutgoing,
	CounterProfileStarredPublic,
	CounterShipIt,
}

// CounterStore - атомарные счётчики групп, профилей и review requests.
// Increment и Decrement выполняются одной атомарной операцией хранилища,
// Recompute выводит значение из связей и перезаписывает накопленное.
type CounterStore interface {
	Increment(ctx context.Context, counter Counter, ids []int64) error
	Decrement(ctx context.Context, counter Counter, ids []int64) error

	// Recompute пересчитывает значение по связям и возвращает его
	Recompute(ctx context.Context, counter Counter, id int64) (int64, error)

	// Get возвращает текущее значение
	Get(ctx context.Context, counter Counter, id int64) (int64, error)

	// IDs возвращает все id, у которых есть этот счётчик
	IDs(ctx context.Context, counter Counter) ([]int64, error)
}
