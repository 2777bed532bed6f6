package gorm

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/storage"
)

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository создаёт репозиторий групп
func NewGroupRepository(db *gorm.DB) storage.GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	const op = "storage.Group.Create"
	requestID := logger.GetRequestID(ctx)

	row := groupFromDomain(group)
	row.ID = 0
	if err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Create(row).Error; err != nil {
		return translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}
	group.ID = row.ID
	group.IncomingRequestCount = 0

	if len(group.MemberIDs) > 0 {
		if err := groupMembers.replace(ctx, r.db, group.ID, group.MemberIDs, nil); err != nil {
			return translate(ctx, err, op, group.ID, storage.ErrAlreadyExists)
		}
	}

	log.Info().
		Str("request_id", requestID).
		Str("layer", "storage").
		Int64("group_id", group.ID).
		Str("name", group.Name).
		Msg("group created")

	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	groups, err := loadGroups(ctx, r.db, []int64{id})
	if err != nil {
		return nil, translate(ctx, err, "storage.Group.GetByID", id, storage.ErrAlreadyExists)
	}
	if len(groups) == 0 {
		return nil, translate(ctx, gorm.ErrRecordNotFound, "storage.Group.GetByID", id, storage.ErrAlreadyExists)
	}
	return &groups[0], nil
}

// GetByNames ищет группы сайта; порядок результата совпадает с names
func (r *groupRepository) GetByNames(ctx context.Context, siteID *int64, names []string) ([]domain.Group, error) {
	const op = "storage.Group.GetByNames"

	if len(names) == 0 {
		return make([]domain.Group, 0), nil
	}
	var rows []Group
	err := sameSite(r.db.WithContext(ctx), siteID).
		Where("name IN ?", names).
		Find(&rows).Error
	if err != nil {
		return nil, translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}

	byName := make(map[string]int64, len(rows))
	for _, row := range rows {
		byName[row.Name] = row.ID
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, translate(ctx, gorm.ErrRecordNotFound, op, 0, storage.ErrAlreadyExists)
		}
		ids = append(ids, id)
	}

	groups, err := orderGroups(ctx, r.db, rows, ids)
	if err != nil {
		return nil, translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}
	return groups, nil
}

func (r *groupRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Group, error) {
	groups, err := loadGroups(ctx, r.db, ids)
	if err != nil {
		return nil, translate(ctx, err, "storage.Group.GetByIDs", 0, storage.ErrAlreadyExists)
	}
	return groups, nil
}

func (r *groupRepository) ListBySite(ctx context.Context, siteID *int64) ([]domain.Group, error) {
	return r.list(ctx, sameSite(r.db.WithContext(ctx), siteID))
}

func (r *groupRepository) ListByMember(ctx context.Context, siteID *int64, userID int64) ([]domain.Group, error) {
	q := sameSite(r.db.WithContext(ctx), siteID).
		Where("id IN (SELECT group_id FROM group_members WHERE user_id = ?)", userID)
	return r.list(ctx, q)
}

func (r *groupRepository) list(ctx context.Context, q *gorm.DB) ([]domain.Group, error) {
	var rows []Group
	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, translate(ctx, err, "storage.Group.List", 0, storage.ErrAlreadyExists)
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	groups, err := orderGroups(ctx, r.db, rows, ids)
	if err != nil {
		return nil, translate(ctx, err, "storage.Group.List", 0, storage.ErrAlreadyExists)
	}
	return groups, nil
}

// AddMember добавляет участника; повторное добавление ничего не меняет
func (r *groupRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	_, err := groupMembers.insert(ctx, r.db, groupID, userID)
	return translate(ctx, err, "storage.Group.AddMember", groupID, storage.ErrAlreadyExists)
}

// sameSite фильтрует по site_id с учётом NULL
func sameSite(q *gorm.DB, siteID *int64) *gorm.DB {
	if siteID == nil {
		return q.Where("site_id IS NULL")
	}
	return q.Where("site_id = ?", *siteID)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository создаёт репозиторий пользователей
func NewUserRepository(db *gorm.DB) storage.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var row User
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, "storage.User.GetByID", id, storage.ErrAlreadyExists)
	}
	user := row.toDomain()
	return &user, nil
}

func (r *userRepository) GetByUsernames(ctx context.Context, usernames []string) ([]domain.User, error) {
	const op = "storage.User.GetByUsernames"

	result := make([]domain.User, 0, len(usernames))
	if len(usernames) == 0 {
		return result, nil
	}
	var rows []User
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&rows).Error; err != nil {
		return nil, translate(ctx, err, op, 0, storage.ErrAlreadyExists)
	}
	byName := make(map[string]User, len(rows))
	for _, row := range rows {
		byName[row.Username] = row
	}
	for _, name := range usernames {
		row, ok := byName[name]
		if !ok {
			return nil, translate(ctx, gorm.ErrRecordNotFound, op, 0, storage.ErrAlreadyExists)
		}
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.User, error) {
	users, err := loadUsers(ctx, r.db, ids)
	if err != nil {
		return nil, translate(ctx, err, "storage.User.GetByIDs", 0, storage.ErrAlreadyExists)
	}
	return users, nil
}

// Upsert создаёт пользователя или обновляет имя и почту.
// Явный id (из провайдера идентификации) сдвигает последовательность.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	const op = "storage.User.Upsert"
	requestID := logger.GetRequestID(ctx)

	row := &User{ID: user.ID, Username: user.Username, Email: user.Email}
	q := r.db.WithContext(ctx)
	if user.ID != 0 {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "email"}),
		})
	}
	if err := q.Create(row).Error; err != nil {
		return translate(ctx, err, op, user.ID, storage.ErrAlreadyExists)
	}
	user.ID = row.ID

	err := r.db.WithContext(ctx).
		Exec("SELECT setval('users_id_seq', GREATEST((SELECT MAX(id) FROM users), 1))").Error
	if err != nil {
		return translate(ctx, err, op, user.ID, storage.ErrAlreadyExists)
	}

	log.Debug().
		Str("request_id", requestID).
		Str("layer", "storage").
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user upserted")

	return nil
}

type siteRepository struct {
	db *gorm.DB
}

// NewSiteRepository создаёт репозиторий сайтов
func NewSiteRepository(db *gorm.DB) storage.SiteRepository {
	return &siteRepository{db: db}
}

func (r *siteRepository) GetByID(ctx context.Context, id int64) (*domain.Site, error) {
	const op = "storage.Site.GetByID"

	var row Site
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	users, err := siteUsers.load(ctx, r.db, id, false)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	admins, err := siteAdmins.load(ctx, r.db, id, false)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	return &domain.Site{
		ID:       row.ID,
		Name:     row.Name,
		Public:   row.Public,
		UserIDs:  users,
		AdminIDs: admins,
	}, nil
}

type codeRepoRepository struct {
	db *gorm.DB
}

// NewCodeRepoRepository создаёт репозиторий репозиториев кода
func NewCodeRepoRepository(db *gorm.DB) storage.CodeRepoRepository {
	return &codeRepoRepository{db: db}
}

func (r *codeRepoRepository) GetByID(ctx context.Context, id int64) (*domain.Repository, error) {
	const op = "storage.Repository.GetByID"

	var row Repository
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	users, err := repositoryUsers.load(ctx, r.db, id, false)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	groupRefs, err := repositoryGroups.load(ctx, r.db, id, false)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	groups, err := loadGroups(ctx, r.db, groupRefs)
	if err != nil {
		return nil, translate(ctx, err, op, id, storage.ErrAlreadyExists)
	}
	return &domain.Repository{
		ID:      row.ID,
		Name:    row.Name,
		Path:    row.Path,
		SiteID:  row.SiteID,
		Public:  row.Public,
		UserIDs: users,
		Groups:  groups,
	}, nil
}
