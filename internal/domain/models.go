package domain

import "time"

// User - пользователь, как его видит ядро. Capabilities приходят от провайдера идентификации.
type User struct {
	ID            int64
	Username      string
	Email         string
	Authenticated bool
	Superuser     bool
	Capabilities  []Capability
}

// Site - тенант (local site). Nil site означает отсутствие разделения.
type Site struct {
	ID       int64
	Name     string
	Public   bool
	UserIDs  []int64
	AdminIDs []int64
}

// Repository - репозиторий исходного кода
type Repository struct {
	ID      int64
	Name    string
	Path    string
	SiteID  *int64
	Public  bool
	UserIDs []int64
	Groups  []Group
}

// Group - группа ревьюверов
type Group struct {
	ID                   int64
	Name                 string
	DisplayName          string
	MailingList          string
	SiteID               *int64
	MemberIDs            []int64
	InviteOnly           bool
	Visible              bool
	ReadyForReviews      bool
	IncomingRequestCount int64
}

// HasMember проверяет членство пользователя в группе
func (g *Group) HasMember(userID int64) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DefaultReviewer - правило автоматического назначения ревьюверов по пути файла
type DefaultReviewer struct {
	ID            int64
	Name          string
	FileRegex     string
	SiteID        *int64
	RepositoryIDs []int64
	GroupIDs      []int64
	PeopleIDs     []int64
}

// Screenshot - скриншот, прикреплённый к review request
type Screenshot struct {
	ID           int64
	Caption      string
	DraftCaption string
	Path         string
}

// FileAttachment - файл, прикреплённый к review request
type FileAttachment struct {
	ID           int64
	Caption      string
	DraftCaption string
	Path         string
	MimeType     string
}

// FileDiff - один файл внутри diffset
type FileDiff struct {
	ID         int64
	DiffSetID  int64
	SourceFile string
	DestFile   string
}

// Path возвращает путь, по которому сопоставляются правила default reviewers
func (f FileDiff) Path() string {
	if f.SourceFile != "" {
		return f.SourceFile
	}
	return f.DestFile
}

// DiffSet - загруженный diff. HistoryID == nil, пока diff висит на черновике.
type DiffSet struct {
	ID        int64
	HistoryID *int64
	Revision  int
	Files     []FileDiff
	CreatedAt time.Time
}

// ReviewRequest - опубликованная сущность review request
type ReviewRequest struct {
	ID           int64
	SiteID       *int64
	LocalID      *int64
	SubmitterID  int64
	Status       ReviewRequestStatus
	Public       bool
	ChangeNum    *int64
	RepositoryID *int64

	Summary     string
	Description string
	TestingDone string
	BugsClosed  string
	Branch      string

	DiffHistoryID int64

	TargetGroups            []Group
	TargetPeople            []User
	Screenshots             []Screenshot
	InactiveScreenshots     []Screenshot
	FileAttachments         []FileAttachment
	InactiveFileAttachments []FileAttachment
	ChangeDescriptions      []ChangeDescription

	ShipItCount  int64
	LastReviewAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayID возвращает идентификатор, который видит пользователь
func (r *ReviewRequest) DisplayID() int64 {
	if r.SiteID != nil && r.LocalID != nil {
		return *r.LocalID
	}
	return r.ID
}

// BugList возвращает отсортированный список багов
func (r *ReviewRequest) BugList() []string {
	return BugList(r.BugsClosed)
}

// CountsIncoming сообщает, учитывается ли запрос во входящих счётчиках групп и профилей
func (r *ReviewRequest) CountsIncoming() bool {
	return r.Public && r.Status == StatusPending
}

// TargetGroupIDs возвращает id целевых групп
func (r *ReviewRequest) TargetGroupIDs() []int64 {
	return groupIDs(r.TargetGroups)
}

// TargetPeopleIDs возвращает id целевых пользователей
func (r *ReviewRequest) TargetPeopleIDs() []int64 {
	return userIDs(r.TargetPeople)
}

// HasTargetPerson проверяет, назначен ли пользователь ревьювером напрямую
func (r *ReviewRequest) HasTargetPerson(userID int64) bool {
	for _, u := range r.TargetPeople {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// ReviewRequestDraft - изменяемая копия review request
type ReviewRequestDraft struct {
	ID              int64
	ReviewRequestID int64

	Summary     string
	Description string
	TestingDone string
	BugsClosed  string
	Branch      string

	DiffSetID         *int64
	ChangeDescription *ChangeDescription

	TargetGroups            []Group
	TargetPeople            []User
	Screenshots             []Screenshot
	InactiveScreenshots     []Screenshot
	FileAttachments         []FileAttachment
	InactiveFileAttachments []FileAttachment

	UpdatedAt time.Time
}

// BugList возвращает отсортированный список багов черновика
func (d *ReviewRequestDraft) BugList() []string {
	return BugList(d.BugsClosed)
}

// Normalize приводит summary и bugs_closed к каноническому виду перед сохранением
func (d *ReviewRequestDraft) Normalize() {
	d.Summary = TruncateSummary(d.Summary)
	d.BugsClosed = NormalizeBugIDs(d.BugsClosed)
}

// Review - ревью на review request. BaseReplyToID != nil означает ответ.
type Review struct {
	ID                  int64
	ReviewRequestID     int64
	UserID              int64
	Public              bool
	ShipIt              bool
	BaseReplyToID       *int64
	BodyTop             string
	BodyBottom          string
	BodyTopReplyToID    *int64
	BodyBottomReplyToID *int64
	Timestamp           time.Time
	Comments            []Comment
}

// IsReply сообщает, является ли ревью ответом на другое ревью
func (r *Review) IsReply() bool {
	return r.BaseReplyToID != nil
}

// Comment - комментарий к diff, скриншоту или файлу
type Comment struct {
	ID          int64
	ReviewID    int64
	Kind        CommentKind
	TargetID    int64
	ReplyToID   *int64
	Text        string
	IssueOpened bool
	IssueStatus IssueStatus
	FirstLine   *int
	NumLines    *int
	X, Y, W, H  *int
	Timestamp   time.Time
}

// SiteProfile - агрегаты пользователя в рамках сайта
type SiteProfile struct {
	ID                int64
	UserID            int64
	SiteID            *int64
	DirectIncoming    int64
	TotalIncoming     int64
	PendingOutgoing   int64
	TotalOutgoing     int64
	StarredPublic     int64
	StarredRequestIDs []int64
}

func groupIDs(groups []Group) []int64 {
	ids := make([]int64, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}

func userIDs(users []User) []int64 {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

// TargetGroupIDs возвращает id целевых групп черновика
func (d *ReviewRequestDraft) TargetGroupIDs() []int64 {
	return groupIDs(d.TargetGroups)
}

// TargetPeopleIDs возвращает id целевых пользователей черновика
func (d *ReviewRequestDraft) TargetPeopleIDs() []int64 {
	return userIDs(d.TargetPeople)
}
