package handlers

import (
	"regexp"

	. "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"reviewflow/internal/domain"
)

var usernameRule = Match(regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`))

type createReviewRequestRequest struct {
	RepositoryID *int64 `json:"repository_id"`
	SiteID       *int64 `json:"site_id"`
	ChangeNum    *int64 `json:"changenum"`
	SubmitAs     string `json:"submit_as"`
}

func (r *createReviewRequestRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.RepositoryID, NilOrNotEmpty, Min(int64(1))),
		Field(&r.SiteID, NilOrNotEmpty, Min(int64(1))),
		Field(&r.ChangeNum, NilOrNotEmpty, Min(int64(1))),
		Field(&r.SubmitAs, Length(0, 150), usernameRule),
	)
}

type updateDraftRequest struct {
	Summary            *string          `json:"summary"`
	Description        *string          `json:"description"`
	TestingDone        *string          `json:"testing_done"`
	Branch             *string          `json:"branch"`
	BugsClosed         *string          `json:"bugs_closed"`
	TargetGroups       *[]string        `json:"target_groups"`
	TargetPeople       *[]string        `json:"target_people"`
	ChangeDescription  *string          `json:"changedescription"`
	ScreenshotCaptions map[int64]string `json:"screenshot_captions"`
	FileCaptions       map[int64]string `json:"file_captions"`
}

func (r *updateDraftRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Branch, Length(0, 300)),
		Field(&r.BugsClosed, Length(0, 300)),
	)
}

func (r *updateDraftRequest) toInput() *domain.UpdateDraftInput {
	return &domain.UpdateDraftInput{
		Summary:            r.Summary,
		Description:        r.Description,
		TestingDone:        r.TestingDone,
		Branch:             r.Branch,
		BugsClosed:         r.BugsClosed,
		TargetGroups:       r.TargetGroups,
		TargetPeople:       r.TargetPeople,
		ChangeText:         r.ChangeDescription,
		ScreenshotCaptions: r.ScreenshotCaptions,
		FileCaptions:       r.FileCaptions,
	}
}

type fileDiffRequest struct {
	SourceFile string `json:"source_file"`
	DestFile   string `json:"dest_file"`
}

func (f fileDiffRequest) Validate() error {
	if f.SourceFile == "" {
		return ValidateStruct(&f, Field(&f.DestFile, Required, Length(1, 1024)))
	}
	return ValidateStruct(&f,
		Field(&f.SourceFile, Length(1, 1024)),
		Field(&f.DestFile, Length(0, 1024)),
	)
}

type attachDiffRequest struct {
	Files []fileDiffRequest `json:"files"`
}

func (r *attachDiffRequest) Validate() error {
	// Validate спускается в элементы среза через Validatable
	return ValidateStruct(r, Field(&r.Files, Required))
}

type attachmentRequest struct {
	Caption  string `json:"caption"`
	Path     string `json:"path"`
	MimeType string `json:"mimetype"`
}

func (r *attachmentRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Caption, Length(0, 256)),
		Field(&r.Path, Required, Length(1, 1024)),
		Field(&r.MimeType, Length(0, 256)),
	)
}

type closeRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (r *closeRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Type, Required, In(string(domain.StatusSubmitted), string(domain.StatusDiscarded))),
	)
}

type changeNumRequest struct {
	ChangeNum int64 `json:"changenum"`
}

func (r *changeNumRequest) Validate() error {
	return ValidateStruct(r, Field(&r.ChangeNum, Required, Min(int64(1))))
}

type createReviewRequest struct {
	BodyTop             string `json:"body_top"`
	BodyBottom          string `json:"body_bottom"`
	ShipIt              bool   `json:"ship_it"`
	BaseReplyToID       *int64 `json:"base_reply_to_id"`
	BodyTopReplyToID    *int64 `json:"body_top_reply_to_id"`
	BodyBottomReplyToID *int64 `json:"body_bottom_reply_to_id"`
}

func (r *createReviewRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.BaseReplyToID, NilOrNotEmpty, Min(int64(1))),
		Field(&r.BodyTopReplyToID, NilOrNotEmpty, Min(int64(1))),
		Field(&r.BodyBottomReplyToID, NilOrNotEmpty, Min(int64(1))),
	)
}

type commentRequest struct {
	Kind        string `json:"kind"`
	TargetID    int64  `json:"target_id"`
	ReplyToID   *int64 `json:"reply_to_id"`
	Text        string `json:"text"`
	IssueOpened bool   `json:"issue_opened"`
	FirstLine   *int   `json:"first_line"`
	NumLines    *int   `json:"num_lines"`
	X           *int   `json:"x"`
	Y           *int   `json:"y"`
	W           *int   `json:"w"`
	H           *int   `json:"h"`
}

func (r *commentRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Kind, Required, In(
			string(domain.CommentKindDiff),
			string(domain.CommentKindScreenshot),
			string(domain.CommentKindFileAttachment),
		)),
		Field(&r.TargetID, Required, Min(int64(1))),
		Field(&r.Text, Required),
		Field(&r.FirstLine, NilOrNotEmpty, Min(1)),
		Field(&r.NumLines, NilOrNotEmpty, Min(1)),
	)
}

type issueStatusRequest struct {
	Status string `json:"status"`
}

func (r *issueStatusRequest) Validate() error {
	return ValidateStruct(r, Field(&r.Status, Required, In(
		string(domain.IssueOpen),
		string(domain.IssueResolved),
		string(domain.IssueDropped),
	)))
}

type registerUserRequest struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (r *registerUserRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.ID, Required, Min(int64(1))),
		Field(&r.Username, Required, Length(1, 150), usernameRule),
		Field(&r.Email, is.Email),
	)
}

type createGroupRequest struct {
	Name            string `json:"name"`
	DisplayName     string `json:"display_name"`
	MailingList     string `json:"mailing_list"`
	SiteID          *int64 `json:"site_id"`
	InviteOnly      bool   `json:"invite_only"`
	Visible         *bool  `json:"visible"`
	ReadyForReviews *bool  `json:"ready_for_reviews"`
}

func (r *createGroupRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Name, Required, Length(1, 64), Match(regexp.MustCompile(`^[A-Za-z0-9_-]+$`))),
		Field(&r.DisplayName, Length(0, 64)),
		Field(&r.MailingList, Length(0, 254), is.Email),
		Field(&r.SiteID, NilOrNotEmpty, Min(int64(1))),
	)
}

type addMemberRequest struct {
	UserID int64 `json:"user_id"`
}

func (r *addMemberRequest) Validate() error {
	return ValidateStruct(r, Field(&r.UserID, Required, Min(int64(1))))
}

type createDefaultReviewerRequest struct {
	Name          string  `json:"name"`
	FileRegex     string  `json:"file_regex"`
	SiteID        *int64  `json:"site_id"`
	RepositoryIDs []int64 `json:"repository_ids"`
	GroupIDs      []int64 `json:"group_ids"`
	PeopleIDs     []int64 `json:"people_ids"`
}

func (r *createDefaultReviewerRequest) Validate() error {
	return ValidateStruct(r,
		Field(&r.Name, Required, Length(1, 64)),
		Field(&r.FileRegex, Required, Length(1, 256), By(compilesAsRegex)),
		Field(&r.SiteID, NilOrNotEmpty, Min(int64(1))),
	)
}

func compilesAsRegex(value interface{}) error {
	s, _ := value.(string)
	_, err := regexp.Compile(s)
	return err
}
