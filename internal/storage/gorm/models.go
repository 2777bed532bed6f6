package gorm

import (
	"strings"
	"time"

	"reviewflow/internal/domain"
)

// User - модель БД для пользователя
type User struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Username string `gorm:"column:username;not null"`
	Email    string `gorm:"column:email;not null"`
}

func (User) TableName() string {
	return "users"
}

// Site - модель БД для сайта
type Site struct {
	ID     int64  `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name;not null"`
	Public bool   `gorm:"column:public;not null"`
}

func (Site) TableName() string {
	return "sites"
}

// Group - модель БД для группы ревьюверов
type Group struct {
	ID                   int64  `gorm:"column:id;primaryKey"`
	Name                 string `gorm:"column:name;not null"`
	DisplayName          string `gorm:"column:display_name;not null"`
	MailingList          string `gorm:"column:mailing_list;not null"`
	SiteID               *int64 `gorm:"column:site_id"`
	InviteOnly           bool   `gorm:"column:invite_only;not null"`
	Visible              bool   `gorm:"column:visible;not null"`
	ReadyForReviews      bool   `gorm:"column:ready_for_reviews;not null"`
	IncomingRequestCount int64  `gorm:"column:incoming_request_count;not null;default:0"`
}

func (Group) TableName() string {
	return "groups"
}

// Repository - модель БД для репозитория
type Repository struct {
	ID     int64  `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name;not null"`
	Path   string `gorm:"column:path;not null"`
	SiteID *int64 `gorm:"column:site_id"`
	Public bool   `gorm:"column:public;not null"`
}

func (Repository) TableName() string {
	return "repositories"
}

// DiffSet - модель БД для diffset
type DiffSet struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	HistoryID *int64    `gorm:"column:history_id"`
	Revision  int       `gorm:"column:revision;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (DiffSet) TableName() string {
	return "diffsets"
}

// FileDiff - модель БД для файла diffset
type FileDiff struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	DiffSetID  int64  `gorm:"column:diffset_id;not null"`
	SourceFile string `gorm:"column:source_file;not null"`
	DestFile   string `gorm:"column:dest_file;not null"`
}

func (FileDiff) TableName() string {
	return "filediffs"
}

// Screenshot - модель БД для скриншота
type Screenshot struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Caption      string `gorm:"column:caption;not null"`
	DraftCaption string `gorm:"column:draft_caption;not null"`
	Path         string `gorm:"column:path;not null"`
}

func (Screenshot) TableName() string {
	return "screenshots"
}

// FileAttachment - модель БД для файла
type FileAttachment struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Caption      string `gorm:"column:caption;not null"`
	DraftCaption string `gorm:"column:draft_caption;not null"`
	Path         string `gorm:"column:path;not null"`
	MimeType     string `gorm:"column:mime_type;not null"`
}

func (FileAttachment) TableName() string {
	return "file_attachments"
}

// ReviewRequest - модель БД для review request
type ReviewRequest struct {
	ID                  int64      `gorm:"column:id;primaryKey"`
	SiteID              *int64     `gorm:"column:site_id"`
	LocalID             *int64     `gorm:"column:local_id"`
	SubmitterID         int64      `gorm:"column:submitter_id;not null"`
	Status              string     `gorm:"column:status;not null;default:P"`
	Public              bool       `gorm:"column:public;not null"`
	ChangeNum           *int64     `gorm:"column:changenum"`
	RepositoryID        *int64     `gorm:"column:repository_id"`
	Summary             string     `gorm:"column:summary;not null"`
	Description         string     `gorm:"column:description;not null"`
	TestingDone         string     `gorm:"column:testing_done;not null"`
	BugsClosed          string     `gorm:"column:bugs_closed;not null"`
	Branch              string     `gorm:"column:branch;not null"`
	DiffSetHistoryID    int64      `gorm:"column:diffset_history_id;not null"`
	ShipItCount         int64      `gorm:"column:shipit_count;not null;default:0"`
	LastReviewTimestamp *time.Time `gorm:"column:last_review_timestamp"`
	CreatedAt           time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;not null"`
}

func (ReviewRequest) TableName() string {
	return "review_requests"
}

// Draft - модель БД для черновика
type Draft struct {
	ID                  int64     `gorm:"column:id;primaryKey"`
	ReviewRequestID     int64     `gorm:"column:review_request_id;not null"`
	Summary             string    `gorm:"column:summary;not null"`
	Description         string    `gorm:"column:description;not null"`
	TestingDone         string    `gorm:"column:testing_done;not null"`
	BugsClosed          string    `gorm:"column:bugs_closed;not null"`
	Branch              string    `gorm:"column:branch;not null"`
	DiffSetID           *int64    `gorm:"column:diffset_id"`
	ChangeDescriptionID *int64    `gorm:"column:change_description_id"`
	UpdatedAt           time.Time `gorm:"column:updated_at;not null"`
}

func (Draft) TableName() string {
	return "review_request_drafts"
}

// ChangeDescription - модель БД для записи истории.
// FieldsChanged хранится в JSONB через сериализатор gorm.
type ChangeDescription struct {
	ID              int64                         `gorm:"column:id;primaryKey"`
	ReviewRequestID *int64                        `gorm:"column:review_request_id"`
	Text            string                        `gorm:"column:text;not null"`
	Public          bool                          `gorm:"column:public;not null"`
	Timestamp       time.Time                     `gorm:"column:timestamp;not null"`
	FieldsChanged   map[string]domain.FieldChange `gorm:"column:fields_changed;serializer:json;not null"`
}

func (ChangeDescription) TableName() string {
	return "change_descriptions"
}

// SiteProfile - модель БД для профиля пользователя на сайте
type SiteProfile struct {
	ID              int64  `gorm:"column:id;primaryKey"`
	UserID          int64  `gorm:"column:user_id;not null"`
	SiteID          *int64 `gorm:"column:site_id"`
	DirectIncoming  int64  `gorm:"column:direct_incoming_request_count;not null;default:0"`
	TotalIncoming   int64  `gorm:"column:total_incoming_request_count;not null;default:0"`
	PendingOutgoing int64  `gorm:"column:pending_outgoing_request_count;not null;default:0"`
	TotalOutgoing   int64  `gorm:"column:total_outgoing_request_count;not null;default:0"`
	StarredPublic   int64  `gorm:"column:starred_public_request_count;not null;default:0"`
}

func (SiteProfile) TableName() string {
	return "site_profiles"
}

// DefaultReviewer - модель БД для правила default reviewer
type DefaultReviewer struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:name;not null"`
	FileRegex string `gorm:"column:file_regex;not null"`
	SiteID    *int64 `gorm:"column:site_id"`
}

func (DefaultReviewer) TableName() string {
	return "default_reviewers"
}

// Review - модель БД для ревью
type Review struct {
	ID                  int64     `gorm:"column:id;primaryKey"`
	ReviewRequestID     int64     `gorm:"column:review_request_id;not null"`
	UserID              int64     `gorm:"column:user_id;not null"`
	Public              bool      `gorm:"column:public;not null"`
	ShipIt              bool      `gorm:"column:ship_it;not null"`
	BaseReplyToID       *int64    `gorm:"column:base_reply_to_id"`
	BodyTop             string    `gorm:"column:body_top;not null"`
	BodyBottom          string    `gorm:"column:body_bottom;not null"`
	BodyTopReplyToID    *int64    `gorm:"column:body_top_reply_to_id"`
	BodyBottomReplyToID *int64    `gorm:"column:body_bottom_reply_to_id"`
	Timestamp           time.Time `gorm:"column:timestamp;not null"`
}

func (Review) TableName() string {
	return "reviews"
}

// Comment - модель БД для комментария
type Comment struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	ReviewID    int64     `gorm:"column:review_id;not null"`
	Kind        string    `gorm:"column:kind;not null"`
	TargetID    int64     `gorm:"column:target_id;not null"`
	ReplyToID   *int64    `gorm:"column:reply_to_id"`
	Text        string    `gorm:"column:text;not null"`
	IssueOpened bool      `gorm:"column:issue_opened;not null"`
	IssueStatus string    `gorm:"column:issue_status;not null"`
	FirstLine   *int      `gorm:"column:first_line"`
	NumLines    *int      `gorm:"column:num_lines"`
	X           *int      `gorm:"column:x"`
	Y           *int      `gorm:"column:y"`
	W           *int      `gorm:"column:w"`
	H           *int      `gorm:"column:h"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
}

func (Comment) TableName() string {
	return "comments"
}

func (u User) toDomain() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (g Group) toDomain(members []int64) domain.Group {
	if members == nil {
		members = make([]int64, 0)
	}
	return domain.Group{
		ID:                   g.ID,
		Name:                 g.Name,
		DisplayName:          g.DisplayName,
		MailingList:          g.MailingList,
		SiteID:               g.SiteID,
		MemberIDs:            members,
		InviteOnly:           g.InviteOnly,
		Visible:              g.Visible,
		ReadyForReviews:      g.ReadyForReviews,
		IncomingRequestCount: g.IncomingRequestCount,
	}
}

func groupFromDomain(g *domain.Group) *Group {
	return &Group{
		ID:              g.ID,
		Name:            g.Name,
		DisplayName:     g.DisplayName,
		MailingList:     g.MailingList,
		SiteID:          g.SiteID,
		InviteOnly:      g.InviteOnly,
		Visible:         g.Visible,
		ReadyForReviews: g.ReadyForReviews,
	}
}

func requestFromDomain(rr *domain.ReviewRequest) *ReviewRequest {
	return &ReviewRequest{
		ID:                  rr.ID,
		SiteID:              rr.SiteID,
		LocalID:             rr.LocalID,
		SubmitterID:         rr.SubmitterID,
		Status:              rr.Status.Code(),
		Public:              rr.Public,
		ChangeNum:           rr.ChangeNum,
		RepositoryID:        rr.RepositoryID,
		Summary:             rr.Summary,
		Description:         rr.Description,
		TestingDone:         rr.TestingDone,
		BugsClosed:          rr.BugsClosed,
		Branch:              rr.Branch,
		DiffSetHistoryID:    rr.DiffHistoryID,
		ShipItCount:         rr.ShipItCount,
		LastReviewTimestamp: rr.LastReviewAt,
		CreatedAt:           rr.CreatedAt,
		UpdatedAt:           rr.UpdatedAt,
	}
}

func (r ReviewRequest) toDomain() (*domain.ReviewRequest, error) {
	status, err := domain.StatusFromCode(strings.TrimSpace(r.Status))
	if err != nil {
		return nil, err
	}
	return &domain.ReviewRequest{
		ID:            r.ID,
		SiteID:        r.SiteID,
		LocalID:       r.LocalID,
		SubmitterID:   r.SubmitterID,
		Status:        status,
		Public:        r.Public,
		ChangeNum:     r.ChangeNum,
		RepositoryID:  r.RepositoryID,
		Summary:       r.Summary,
		Description:   r.Description,
		TestingDone:   r.TestingDone,
		BugsClosed:    r.BugsClosed,
		Branch:        r.Branch,
		DiffHistoryID: r.DiffSetHistoryID,
		ShipItCount:   r.ShipItCount,
		LastReviewAt:  r.LastReviewTimestamp,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

func draftFromDomain(d *domain.ReviewRequestDraft) *Draft {
	row := &Draft{
		ID:              d.ID,
		ReviewRequestID: d.ReviewRequestID,
		Summary:         d.Summary,
		Description:     d.Description,
		TestingDone:     d.TestingDone,
		BugsClosed:      d.BugsClosed,
		Branch:          d.Branch,
		DiffSetID:       d.DiffSetID,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.ChangeDescription != nil && d.ChangeDescription.ID != 0 {
		id := d.ChangeDescription.ID
		row.ChangeDescriptionID = &id
	}
	return row
}

func (d Draft) toDomain() *domain.ReviewRequestDraft {
	return &domain.ReviewRequestDraft{
		ID:              d.ID,
		ReviewRequestID: d.ReviewRequestID,
		Summary:         d.Summary,
		Description:     d.Description,
		TestingDone:     d.TestingDone,
		BugsClosed:      d.BugsClosed,
		Branch:          d.Branch,
		DiffSetID:       d.DiffSetID,
		UpdatedAt:       d.UpdatedAt,
	}
}

func changeDescriptionFromDomain(cd *domain.ChangeDescription) *ChangeDescription {
	fields := cd.FieldsChanged
	if fields == nil {
		fields = make(map[string]domain.FieldChange)
	}
	return &ChangeDescription{
		ID:              cd.ID,
		ReviewRequestID: cd.ReviewRequestID,
		Text:            cd.Text,
		Public:          cd.Public,
		Timestamp:       cd.Timestamp,
		FieldsChanged:   fields,
	}
}

func (cd ChangeDescription) toDomain() domain.ChangeDescription {
	return domain.ChangeDescription{
		ID:              cd.ID,
		ReviewRequestID: cd.ReviewRequestID,
		Text:            cd.Text,
		Public:          cd.Public,
		Timestamp:       cd.Timestamp,
		FieldsChanged:   cd.FieldsChanged,
	}
}

func reviewFromDomain(r *domain.Review) *Review {
	return &Review{
		ID:                  r.ID,
		ReviewRequestID:     r.ReviewRequestID,
		UserID:              r.UserID,
		Public:              r.Public,
		ShipIt:              r.ShipIt,
		BaseReplyToID:       r.BaseReplyToID,
		BodyTop:             r.BodyTop,
		BodyBottom:          r.BodyBottom,
		BodyTopReplyToID:    r.BodyTopReplyToID,
		BodyBottomReplyToID: r.BodyBottomReplyToID,
		Timestamp:           r.Timestamp,
	}
}

func (r Review) toDomain(comments []domain.Comment) domain.Review {
	return domain.Review{
		ID:                  r.ID,
		ReviewRequestID:     r.ReviewRequestID,
		UserID:              r.UserID,
		Public:              r.Public,
		ShipIt:              r.ShipIt,
		BaseReplyToID:       r.BaseReplyToID,
		BodyTop:             r.BodyTop,
		BodyBottom:          r.BodyBottom,
		BodyTopReplyToID:    r.BodyTopReplyToID,
		BodyBottomReplyToID: r.BodyBottomReplyToID,
		Timestamp:           r.Timestamp,
		Comments:            comments,
	}
}

func commentFromDomain(c *domain.Comment) *Comment {
	return &Comment{
		ID:          c.ID,
		ReviewID:    c.ReviewID,
		Kind:        string(c.Kind),
		TargetID:    c.TargetID,
		ReplyToID:   c.ReplyToID,
		Text:        c.Text,
		IssueOpened: c.IssueOpened,
		IssueStatus: c.IssueStatus.Code(),
		FirstLine:   c.FirstLine,
		NumLines:    c.NumLines,
		X:           c.X,
		Y:           c.Y,
		W:           c.W,
		H:           c.H,
		Timestamp:   c.Timestamp,
	}
}

func (c Comment) toDomain() (domain.Comment, error) {
	issue, err := domain.IssueStatusFromCode(strings.TrimSpace(c.IssueStatus))
	if err != nil {
		return domain.Comment{}, err
	}
	return domain.Comment{
		ID:          c.ID,
		ReviewID:    c.ReviewID,
		Kind:        domain.CommentKind(c.Kind),
		TargetID:    c.TargetID,
		ReplyToID:   c.ReplyToID,
		Text:        c.Text,
		IssueOpened: c.IssueOpened,
		IssueStatus: issue,
		FirstLine:   c.FirstLine,
		NumLines:    c.NumLines,
		X:           c.X,
		Y:           c.Y,
		W:           c.W,
		H:           c.H,
		Timestamp:   c.Timestamp,
	}, nil
}
