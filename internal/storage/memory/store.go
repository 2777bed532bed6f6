// Package memory - хранилище в памяти для тестов и локального запуска.
// Транзакции сериализуются мьютексом; при ошибке состояние откатывается к снимку.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/copystructure"
	"github.com/rs/zerolog/log"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

type requestRow struct {
	Request               domain.ReviewRequest
	GroupIDs              []int64
	PeopleIDs             []int64
	ScreenshotIDs         []int64
	InactiveScreenshotIDs []int64
	FileIDs               []int64
	InactiveFileIDs       []int64
}

type draftRow struct {
	Draft                 domain.ReviewRequestDraft
	ChangeDescriptionID   *int64
	GroupIDs              []int64
	PeopleIDs             []int64
	ScreenshotIDs         []int64
	InactiveScreenshotIDs []int64
	FileIDs               []int64
	InactiveFileIDs       []int64
}

type repositoryRow struct {
	Repository domain.Repository
	GroupIDs   []int64
}

// state - всё содержимое хранилища. Поля экспортируются, чтобы copystructure
// мог сделать глубокую копию.
type state struct {
	Seq int64

	Requests           map[int64]*requestRow
	Drafts             map[int64]*draftRow // review_request_id -> draft
	ChangeDescriptions map[int64]*domain.ChangeDescription
	Groups             map[int64]*domain.Group
	Users              map[int64]*domain.User
	Sites              map[int64]*domain.Site
	Repositories       map[int64]*repositoryRow
	Profiles           map[int64]*domain.SiteProfile
	Rules              map[int64]*domain.DefaultReviewer
	Histories          map[int64]bool
	DiffSets           map[int64]*domain.DiffSet
	Screenshots        map[int64]*domain.Screenshot
	Files              map[int64]*domain.FileAttachment
	Reviews            map[int64]*domain.Review
	Comments           map[int64]*domain.Comment
}

func newState() *state {
	return &state{
		Requests:           make(map[int64]*requestRow),
		Drafts:             make(map[int64]*draftRow),
		ChangeDescriptions: make(map[int64]*domain.ChangeDescription),
		Groups:             make(map[int64]*domain.Group),
		Users:              make(map[int64]*domain.User),
		Sites:              make(map[int64]*domain.Site),
		Repositories:       make(map[int64]*repositoryRow),
		Profiles:           make(map[int64]*domain.SiteProfile),
		Rules:              make(map[int64]*domain.DefaultReviewer),
		Histories:          make(map[int64]bool),
		DiffSets:           make(map[int64]*domain.DiffSet),
		Screenshots:        make(map[int64]*domain.Screenshot),
		Files:              make(map[int64]*domain.FileAttachment),
		Reviews:            make(map[int64]*domain.Review),
		Comments:           make(map[int64]*domain.Comment),
	}
}

func (s *state) nextID() int64 {
	s.Seq++
	return s.Seq
}

// Store - хранилище в памяти, реализует storage.TxManager
type Store struct {
	mu    sync.Mutex
	state *state
}

// New создаёт пустое хранилище
func New() *Store {
	return &Store{state: newState()}
}

// Do выполняет fn в транзакции. Транзакции выполняются строго последовательно.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	requestID := logger.GetRequestID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := copystructure.Copy(s.state)
	if err != nil {
		log.Error().
			Str("request_id", requestID).
			Str("layer", "storage").
			Err(err).
			Msg("Failed to snapshot state")
		return fmt.Errorf("snapshot state: %w", err)
	}

	if err := fn(ctx, &tx{st: s.state}); err != nil {
		s.state = snapshot.(*state)
		log.Debug().
			Str("request_id", requestID).
			Str("layer", "storage").
			Err(err).
			Msg("Transaction rolled back")
		return err
	}

	return nil
}

// SeedSite добавляет сайт. Сайты и репозитории управляются вне сервиса.
func (s *Store) SeedSite(site domain.Site) *domain.Site {
	s.mu.Lock()
	defer s.mu.Unlock()

	if site.ID == 0 {
		site.ID = s.state.nextID()
	}
	s.state.Sites[site.ID] = clone(&site)
	return clone(&site)
}

// SeedRepository добавляет репозиторий; группы доступа задаются по id
func (s *Store) SeedRepository(repo domain.Repository) *domain.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()

	if repo.ID == 0 {
		repo.ID = s.state.nextID()
	}
	ids := make([]int64, 0, len(repo.Groups))
	for _, g := range repo.Groups {
		ids = append(ids, g.ID)
	}
	row := &repositoryRow{Repository: repo, GroupIDs: ids}
	row.Repository.Groups = nil
	s.state.Repositories[repo.ID] = clone(row)
	return clone(&repo)
}

// tx реализует storage.Tx поверх текущего состояния
type tx struct {
	st *state
}

func (t *tx) ReviewRequestRepo() storage.ReviewRequestRepository {
	return &reviewRequestRepo{st: t.st}
}

func (t *tx) DraftRepo() storage.DraftRepository {
	return &draftRepo{st: t.st}
}

func (t *tx) ChangeDescriptionRepo() storage.ChangeDescriptionRepository {
	return &changeDescRepo{st: t.st}
}

func (t *tx) GroupRepo() storage.GroupRepository {
	return &groupRepo{st: t.st}
}

func (t *tx) UserRepo() storage.UserRepository {
	return &userRepo{st: t.st}
}

func (t *tx) SiteRepo() storage.SiteRepository {
	return &siteRepo{st: t.st}
}

func (t *tx) CodeRepoRepo() storage.CodeRepoRepository {
	return &codeRepoRepo{st: t.st}
}

func (t *tx) ProfileRepo() storage.ProfileRepository {
	return &profileRepo{st: t.st}
}

func (t *tx) DefaultReviewerRepo() storage.DefaultReviewerRepository {
	return &defaultReviewerRepo{st: t.st}
}

func (t *tx) DiffRepo() storage.DiffRepository {
	return &diffRepo{st: t.st}
}

func (t *tx) AttachmentRepo() storage.AttachmentRepository {
	return &attachmentRepo{st: t.st}
}

func (t *tx) ReviewRepo() storage.ReviewRepository {
	return &reviewRepo{st: t.st}
}

func (t *tx) Counters() storage.CounterStore {
	return &counterStore{st: t.st}
}

// clone возвращает глубокую копию, чтобы вызывающий код не менял состояние напрямую
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return copystructure.Must(copystructure.Copy(v)).(*T)
}

func sameRef(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
