package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewflow/internal/domain"
	"reviewflow/internal/storage"
)

type diffRepository struct {
	db *gorm.DB
}

// NewDiffRepository создаёт репозиторий diff
func NewDiffRepository(db *gorm.DB) storage.DiffRepository {
	return &diffRepository{db: db}
}

func (r *diffRepository) CreateHistory(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).
		Raw("INSERT INTO diffset_histories DEFAULT VALUES RETURNING id").
		Scan(&id).Error
	if err != nil {
		return 0, translate(ctx, err, "storage.Diff.CreateHistory", 0, storage.ErrConflict)
	}
	return id, nil
}

func (r *diffRepository) CreateDiffSet(ctx context.Context, ds *domain.DiffSet) error {
	const op = "storage.Diff.CreateDiffSet"

	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	row := &DiffSet{HistoryID: ds.HistoryID, Revision: ds.Revision, CreatedAt: ds.CreatedAt}
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(row).Error; err != nil {
		return translate(ctx, err, op, 0, storage.ErrConflict)
	}
	ds.ID = row.ID

	if len(ds.Files) == 0 {
		return nil
	}
	files := make([]FileDiff, 0, len(ds.Files))
	for _, f := range ds.Files {
		files = append(files, FileDiff{DiffSetID: ds.ID, SourceFile: f.SourceFile, DestFile: f.DestFile})
	}
	if err := r.db.WithContext(ctx).Create(&files).Error; err != nil {
		return translate(ctx, err, op, ds.ID, storage.ErrConflict)
	}
	for i := range ds.Files {
		ds.Files[i].ID = files[i].ID
		ds.Files[i].DiffSetID = ds.ID
	}
	return nil
}

func (r *diffRepository) GetDiffSet(ctx context.Context, id int64) (*domain.DiffSet, error) {
	const op = "storage.Diff.GetDiffSet"

	var row DiffSet
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}
	var files []FileDiff
	if err := r.db.WithContext(ctx).Where("diffset_id = ?", id).Order("id").Find(&files).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrConflict)
	}

	ds := &domain.DiffSet{
		ID:        row.ID,
		HistoryID: row.HistoryID,
		Revision:  row.Revision,
		CreatedAt: row.CreatedAt,
		Files:     make([]domain.FileDiff, 0, len(files)),
	}
	for _, f := range files {
		ds.Files = append(ds.Files, domain.FileDiff(f))
	}
	return ds, nil
}

func (r *diffRepository) CountInHistory(ctx context.Context, historyID int64) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DiffSet{}).Where("history_id = ?", historyID).Count(&count).Error
	if err != nil {
		return 0, translate(ctx, err, "storage.Diff.CountInHistory", historyID, storage.ErrConflict)
	}
	return int(count), nil
}

func (r *diffRepository) MoveToHistory(ctx context.Context, diffSetID, historyID int64) error {
	result := r.db.WithContext(ctx).
		Model(&DiffSet{}).
		Where("id = ?", diffSetID).
		Update("history_id", historyID)
	return translate(ctx, notFoundIfNone(result), "storage.Diff.MoveToHistory", diffSetID, storage.ErrConflict)
}

type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository создаёт репозиторий скриншотов и файлов
func NewAttachmentRepository(db *gorm.DB) storage.AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) CreateScreenshot(ctx context.Context, s *domain.Screenshot) error {
	row := Screenshot(*s)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(ctx, err, "storage.Attachment.CreateScreenshot", 0, storage.ErrConflict)
	}
	s.ID = row.ID
	return nil
}

func (r *attachmentRepository) SaveScreenshot(ctx context.Context, s *domain.Screenshot) error {
	result := r.db.WithContext(ctx).
		Model(&Screenshot{ID: s.ID}).
		Select("caption", "draft_caption", "path").
		Updates(Screenshot(*s))
	return translate(ctx, notFoundIfNone(result), "storage.Attachment.SaveScreenshot", s.ID, storage.ErrConflict)
}

func (r *attachmentRepository) CreateFileAttachment(ctx context.Context, f *domain.FileAttachment) error {
	row := FileAttachment(*f)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(ctx, err, "storage.Attachment.CreateFileAttachment", 0, storage.ErrConflict)
	}
	f.ID = row.ID
	return nil
}

func (r *attachmentRepository) SaveFileAttachment(ctx context.Context, f *domain.FileAttachment) error {
	result := r.db.WithContext(ctx).
		Model(&FileAttachment{ID: f.ID}).
		Select("caption", "draft_caption", "path", "mime_type").
		Updates(FileAttachment(*f))
	return translate(ctx, notFoundIfNone(result), "storage.Attachment.SaveFileAttachment", f.ID, storage.ErrConflict)
}

type defaultReviewerRepository struct {
	db *gorm.DB
}

// NewDefaultReviewerRepository создаёт репозиторий правил default reviewers
func NewDefaultReviewerRepository(db *gorm.DB) storage.DefaultReviewerRepository {
	return &defaultReviewerRepository{db: db}
}

func (r *defaultReviewerRepository) Create(ctx context.Context, rule *domain.DefaultReviewer) error {
	const op = "storage.DefaultReviewer.Create"

	row := &DefaultReviewer{Name: rule.Name, FileRegex: rule.FileRegex, SiteID: rule.SiteID}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}
	rule.ID = row.ID

	if err := ruleRepositories.replace(ctx, r.db, rule.ID, rule.RepositoryIDs, nil); err != nil {
		return translate(ctx, err, op, rule.ID, storage.ErrAlreadyExists)
	}
	if err := ruleGroups.replace(ctx, r.db, rule.ID, rule.GroupIDs, nil); err != nil {
		return translate(ctx, err, op, rule.ID, storage.ErrAlreadyExists)
	}
	if err := rulePeople.replace(ctx, r.db, rule.ID, rule.PeopleIDs, nil); err != nil {
		return translate(ctx, err, op, rule.ID, storage.ErrAlreadyExists)
	}
	return nil
}

func (r *defaultReviewerRepository) ListBySite(ctx context.Context, siteID *int64) ([]domain.DefaultReviewer, error) {
	const op = "storage.DefaultReviewer.ListBySite"

	var rows []DefaultReviewer
	if err := sameSite(r.db.WithContext(ctx), siteID).Order("id").Find(&rows).Error; err != nil {
		return nil, translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}

	rules := make([]domain.DefaultReviewer, 0, len(rows))
	for _, row := range rows {
		rule := domain.DefaultReviewer{ID: row.ID, Name: row.Name, FileRegex: row.FileRegex, SiteID: row.SiteID}
		var err error
		if rule.RepositoryIDs, err = ruleRepositories.load(ctx, r.db, row.ID, false); err != nil {
			return nil, translate(ctx, err, op, row.ID, storage.ErrAlreadyExists)
		}
		if rule.GroupIDs, err = ruleGroups.load(ctx, r.db, row.ID, false); err != nil {
			return nil, translate(ctx, err, op, row.ID, storage.ErrAlreadyExists)
		}
		if rule.PeopleIDs, err = rulePeople.load(ctx, r.db, row.ID, false); err != nil {
			return nil, translate(ctx, err, op, row.ID, storage.ErrAlreadyExists)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
