package gorm

import (
	"context"

	"gorm.io/gorm"

	"reviewflow/internal/domain"
)

// linkTable - таблица связей many-to-many. Если flagged, в ней есть
// колонка inactive, и одна таблица хранит активный и неактивный наборы.
type linkTable struct {
	name    string
	owner   string
	target  string
	flagged bool
}

var (
	requestGroups      = linkTable{name: "review_request_target_groups", owner: "review_request_id", target: "group_id"}
	requestPeople      = linkTable{name: "review_request_target_people", owner: "review_request_id", target: "user_id"}
	requestScreenshots = linkTable{name: "review_request_screenshots", owner: "review_request_id", target: "screenshot_id", flagged: true}
	requestFiles       = linkTable{name: "review_request_file_attachments", owner: "review_request_id", target: "file_attachment_id", flagged: true}

	draftGroups      = linkTable{name: "draft_target_groups", owner: "draft_id", target: "group_id"}
	draftPeople      = linkTable{name: "draft_target_people", owner: "draft_id", target: "user_id"}
	draftScreenshots = linkTable{name: "draft_screenshots", owner: "draft_id", target: "screenshot_id", flagged: true}
	draftFiles       = linkTable{name: "draft_file_attachments", owner: "draft_id", target: "file_attachment_id", flagged: true}

	groupMembers     = linkTable{name: "group_members", owner: "group_id", target: "user_id"}
	siteUsers        = linkTable{name: "site_users", owner: "site_id", target: "user_id"}
	siteAdmins       = linkTable{name: "site_admins", owner: "site_id", target: "user_id"}
	repositoryUsers  = linkTable{name: "repository_users", owner: "repository_id", target: "user_id"}
	repositoryGroups = linkTable{name: "repository_groups", owner: "repository_id", target: "group_id"}

	ruleRepositories = linkTable{name: "default_reviewer_repositories", owner: "default_reviewer_id", target: "repository_id"}
	ruleGroups       = linkTable{name: "default_reviewer_groups", owner: "default_reviewer_id", target: "group_id"}
	rulePeople       = linkTable{name: "default_reviewer_people", owner: "default_reviewer_id", target: "user_id"}

	starredRequests = linkTable{name: "profile_starred_review_requests", owner: "profile_id", target: "review_request_id"}
)

// load возвращает id связанных объектов. Для flagged таблиц inactive выбирает набор.
func (l linkTable) load(ctx context.Context, db *gorm.DB, ownerID int64, inactive bool) ([]int64, error) {
	ids := make([]int64, 0)
	q := db.WithContext(ctx).Table(l.name).Where(l.owner+" = ?", ownerID)
	if l.flagged {
		q = q.Where("inactive = ?", inactive)
	}
	err := q.Order(l.target).Pluck(l.target, &ids).Error
	return ids, err
}

// replace заменяет все связи владельца. inactive игнорируется для обычных таблиц.
func (l linkTable) replace(ctx context.Context, db *gorm.DB, ownerID int64, active, inactive []int64) error {
	if err := db.WithContext(ctx).Exec("DELETE FROM "+l.name+" WHERE "+l.owner+" = ?", ownerID).Error; err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(active)+len(inactive))
	seen := make(map[int64]struct{}, len(active)+len(inactive))
	add := func(ids []int64, flag bool) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			row := map[string]any{l.owner: ownerID, l.target: id}
			if l.flagged {
				row["inactive"] = flag
			}
			rows = append(rows, row)
		}
	}
	add(active, false)
	if l.flagged {
		add(inactive, true)
	}
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Table(l.name).Create(&rows).Error
}

// insert добавляет одну связь; false, если она уже была
func (l linkTable) insert(ctx context.Context, db *gorm.DB, ownerID, targetID int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		"INSERT INTO "+l.name+" ("+l.owner+", "+l.target+") VALUES (?, ?) ON CONFLICT DO NOTHING",
		ownerID, targetID)
	return result.RowsAffected > 0, result.Error
}

// remove удаляет одну связь; false, если её не было
func (l linkTable) remove(ctx context.Context, db *gorm.DB, ownerID, targetID int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		"DELETE FROM "+l.name+" WHERE "+l.owner+" = ? AND "+l.target+" = ?",
		ownerID, targetID)
	return result.RowsAffected > 0, result.Error
}

// loadGroups возвращает группы с участниками в порядке ids
func loadGroups(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Group, error) {
	result := make([]domain.Group, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []Group
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return orderGroups(ctx, db, rows, ids)
}

func orderGroups(ctx context.Context, db *gorm.DB, rows []Group, ids []int64) ([]domain.Group, error) {
	members, err := membersOf(ctx, db, rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]Group, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	result := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			result = append(result, row.toDomain(members[id]))
		}
	}
	return result, nil
}

// membersOf загружает участников групп одним запросом
func membersOf(ctx context.Context, db *gorm.DB, groups []Group) (map[int64][]int64, error) {
	members := make(map[int64][]int64, len(groups))
	if len(groups) == 0 {
		return members, nil
	}
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	var links []struct {
		GroupID int64
		UserID  int64
	}
	err := db.WithContext(ctx).
		Table(groupMembers.name).
		Where("group_id IN ?", ids).
		Order("group_id, user_id").
		Scan(&links).Error
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		members[link.GroupID] = append(members[link.GroupID], link.UserID)
	}
	return members, nil
}

// loadUsers возвращает пользователей в порядке ids
func loadUsers(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.User, error) {
	result := make([]domain.User, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]User, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			result = append(result, row.toDomain())
		}
	}
	return result, nil
}

func loadScreenshots(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Screenshot, error) {
	result := make([]domain.Screenshot, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []Screenshot
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result = append(result, domain.Screenshot(row))
	}
	return result, nil
}

func loadFiles(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.FileAttachment, error) {
	result := make([]domain.FileAttachment, 0, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []FileAttachment
	if err := db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result = append(result, domain.FileAttachment(row))
	}
	return result, nil
}

// targets - реляционные наборы review request или черновика
type targets struct {
	groups              []domain.Group
	people              []domain.User
	screenshots         []domain.Screenshot
	inactiveScreenshots []domain.Screenshot
	files               []domain.FileAttachment
	inactiveFiles       []domain.FileAttachment
}

// linkSet - четыре таблицы связей одного владельца
type linkSet struct {
	groups      linkTable
	people      linkTable
	screenshots linkTable
	files       linkTable
}

var (
	requestLinks = linkSet{groups: requestGroups, people: requestPeople, screenshots: requestScreenshots, files: requestFiles}
	draftLinks   = linkSet{groups: draftGroups, people: draftPeople, screenshots: draftScreenshots, files: draftFiles}
)

func (s linkSet) load(ctx context.Context, db *gorm.DB, ownerID int64) (*targets, error) {
	var (
		t   targets
		ids []int64
		err error
	)
	if ids, err = s.groups.load(ctx, db, ownerID, false); err != nil {
		return nil, err
	}
	if t.groups, err = loadGroups(ctx, db, ids); err != nil {
		return nil, err
	}
	if ids, err = s.people.load(ctx, db, ownerID, false); err != nil {
		return nil, err
	}
	if t.people, err = loadUsers(ctx, db, ids); err != nil {
		return nil, err
	}
	if ids, err = s.screenshots.load(ctx, db, ownerID, false); err != nil {
		return nil, err
	}
	if t.screenshots, err = loadScreenshots(ctx, db, ids); err != nil {
		return nil, err
	}
	if ids, err = s.screenshots.load(ctx, db, ownerID, true); err != nil {
		return nil, err
	}
	if t.inactiveScreenshots, err = loadScreenshots(ctx, db, ids); err != nil {
		return nil, err
	}
	if ids, err = s.files.load(ctx, db, ownerID, false); err != nil {
		return nil, err
	}
	if t.files, err = loadFiles(ctx, db, ids); err != nil {
		return nil, err
	}
	if ids, err = s.files.load(ctx, db, ownerID, true); err != nil {
		return nil, err
	}
	if t.inactiveFiles, err = loadFiles(ctx, db, ids); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s linkSet) replace(ctx context.Context, db *gorm.DB, ownerID int64, t *targets) error {
	if err := s.groups.replace(ctx, db, ownerID, groupIDs(t.groups), nil); err != nil {
		return err
	}
	if err := s.people.replace(ctx, db, ownerID, userIDs(t.people), nil); err != nil {
		return err
	}
	if err := s.screenshots.replace(ctx, db, ownerID, screenshotIDs(t.screenshots), screenshotIDs(t.inactiveScreenshots)); err != nil {
		return err
	}
	return s.files.replace(ctx, db, ownerID, fileIDs(t.files), fileIDs(t.inactiveFiles))
}

func groupIDs(groups []domain.Group) []int64 {
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids
}

func userIDs(users []domain.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func screenshotIDs(items []domain.Screenshot) []int64 {
	ids := make([]int64, 0, len(items))
	for _, s := range items {
		ids = append(ids, s.ID)
	}
	return ids
}

func fileIDs(items []domain.FileAttachment) []int64 {
	ids := make([]int64, 0, len(items))
	for _, f := range items {
		ids = append(ids, f.ID)
	}
	return ids
}
