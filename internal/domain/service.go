package domain

import "context"

// ReviewService - интерфейс бизнес-логики жизненного цикла review request
//
//go:generate mockery --name=ReviewService --output=../mocks --outpkg=mocks --filename=review_service_mock.go
type ReviewService interface {
	// CreateReviewRequest создаёт новый review request в статусе pending
	CreateReviewRequest(ctx context.Context, user *User, input *CreateReviewRequestInput) (*ReviewRequest, error)

	// GetReviewRequest возвращает review request, если пользователь может его видеть
	GetReviewRequest(ctx context.Context, user *User, id int64) (*ReviewRequest, error)

	// GetDraft возвращает черновик, создавая его при первом обращении
	GetDraft(ctx context.Context, user *User, id int64) (*ReviewRequestDraft, error)

	// UpdateDraft изменяет поля черновика
	UpdateDraft(ctx context.Context, user *User, id int64, input *UpdateDraftInput) (*ReviewRequestDraft, error)

	// DiscardDraft удаляет черновик без публикации
	DiscardDraft(ctx context.Context, user *User, id int64) error

	// AttachDiff загружает новый diffset в черновик и добавляет default reviewers
	AttachDiff(ctx context.Context, user *User, id int64, input *AttachDiffInput) (*DiffSet, error)

	// AddScreenshot добавляет скриншот в черновик
	AddScreenshot(ctx context.Context, user *User, id int64, input *AttachmentInput) (*Screenshot, error)

	// AddFileAttachment добавляет файл в черновик
	AddFileAttachment(ctx context.Context, user *User, id int64, input *AttachmentInput) (*FileAttachment, error)

	// RemoveScreenshot переносит скриншот черновика в неактивные
	RemoveScreenshot(ctx context.Context, user *User, id, screenshotID int64) error

	// RemoveFileAttachment переносит файл черновика в неактивные
	RemoveFileAttachment(ctx context.Context, user *User, id, attachmentID int64) error

	// PublishReviewRequest публикует черновик
	PublishReviewRequest(ctx context.Context, user *User, id int64) (*PublishResult, error)

	// CloseReviewRequest закрывает review request как submitted или discarded
	CloseReviewRequest(ctx context.Context, user *User, id int64, input *CloseInput) (*ReviewRequest, error)

	// ReopenReviewRequest возвращает review request в pending
	ReopenReviewRequest(ctx context.Context, user *User, id int64) (*ReviewRequest, error)

	// DeleteReviewRequest удаляет review request вместе с ревью
	DeleteReviewRequest(ctx context.Context, user *User, id int64) error

	// UpdateChangeNum меняет номер внешнего changeset
	UpdateChangeNum(ctx context.Context, user *User, id int64, changeNum int64) (*ReviewRequest, error)

	// UpdateFromChangeset заполняет черновик из внешнего changeset
	UpdateFromChangeset(ctx context.Context, user *User, id int64, changeNum int64) (*ReviewRequestDraft, error)

	// StarReviewRequest добавляет review request в избранное пользователя
	StarReviewRequest(ctx context.Context, user *User, id int64) error

	// UnstarReviewRequest убирает review request из избранного пользователя
	UnstarReviewRequest(ctx context.Context, user *User, id int64) error

	// CreateReview создаёт черновик ревью или ответа
	CreateReview(ctx context.Context, user *User, requestID int64, input *CreateReviewInput) (*Review, error)

	// AddComment добавляет комментарий в неопубликованное ревью
	AddComment(ctx context.Context, user *User, reviewID int64, input *CommentInput) (*Comment, error)

	// PublishReview публикует ревью или ответ
	PublishReview(ctx context.Context, user *User, reviewID int64) (*Review, error)

	// SetIssueStatus меняет состояние issue комментария
	SetIssueStatus(ctx context.Context, user *User, commentID int64, status IssueStatus) (*Comment, error)

	// ListPublicReviews возвращает опубликованные ревью верхнего уровня, видимые пользователю
	ListPublicReviews(ctx context.Context, user *User, requestID int64) ([]Review, error)

	// ListParticipants возвращает участников обсуждения в порядке обхода ответов
	ListParticipants(ctx context.Context, user *User, requestID int64) ([]User, error)

	// RegisterUser создаёт или обновляет пользователя
	RegisterUser(ctx context.Context, actor *User, input *RegisterUserInput) (*User, error)

	// CreateGroup создаёт группу ревьюверов
	CreateGroup(ctx context.Context, user *User, input *CreateGroupInput) (*Group, error)

	// AddGroupMember добавляет пользователя в группу
	AddGroupMember(ctx context.Context, user *User, groupID, memberID int64) (*Group, error)

	// ListGroups возвращает видимые пользователю группы сайта
	ListGroups(ctx context.Context, user *User, siteID *int64) ([]Group, error)

	// CreateDefaultReviewer создаёт правило default reviewer
	CreateDefaultReviewer(ctx context.Context, user *User, input *CreateDefaultReviewerInput) (*DefaultReviewer, error)
}

// ChangesetSource - внешняя система, из которой берутся данные changeset
type ChangesetSource interface {
	// GetChangeset возвращает changeset или ErrChangesetNotFound
	GetChangeset(ctx context.Context, repository *Repository, changeNum int64) (*Changeset, error)
}

// Changeset - данные changeset во внешней системе
type Changeset struct {
	ChangeNum   int64
	Summary     string
	Description string
	TestingDone string
	Branch      string
	BugsClosed  []string
	Pending     bool
}

// Input/Output DTOs для методов сервиса

// CreateReviewRequestInput - входные данные для создания review request
type CreateReviewRequestInput struct {
	RepositoryID *int64
	SiteID       *int64
	ChangeNum    *int64
	// SubmitAs - username другого пользователя (нужна capability submit_as_another_user)
	SubmitAs string
}

// UpdateDraftInput - изменения черновика; nil означает "не менять"
type UpdateDraftInput struct {
	Summary            *string
	Description        *string
	TestingDone        *string
	Branch             *string
	BugsClosed         *string
	TargetGroups       *[]string
	TargetPeople       *[]string
	ChangeText         *string
	ScreenshotCaptions map[int64]string
	FileCaptions       map[int64]string
}

// AttachDiffInput - загруженный diff
type AttachDiffInput struct {
	Files []FileDiff
}

// AttachmentInput - загружаемый скриншот или файл
type AttachmentInput struct {
	Caption  string
	Path     string
	MimeType string
}

// CloseInput - входные данные для закрытия
type CloseInput struct {
	Type        ReviewRequestStatus
	Description string
}

// PublishResult - результат публикации
type PublishResult struct {
	ReviewRequest     *ReviewRequest
	ChangeDescription *ChangeDescription
}

// CreateReviewInput - входные данные для ревью
type CreateReviewInput struct {
	BodyTop             string
	BodyBottom          string
	ShipIt              bool
	BaseReplyToID       *int64
	BodyTopReplyToID    *int64
	BodyBottomReplyToID *int64
}

// CommentInput - входные данные для комментария
type CommentInput struct {
	Kind        CommentKind
	TargetID    int64
	ReplyToID   *int64
	Text        string
	IssueOpened bool
	FirstLine   *int
	NumLines    *int
	X, Y, W, H  *int
}

// RegisterUserInput - входные данные для пользователя
type RegisterUserInput struct {
	ID       int64
	Username string
	Email    string
}

// CreateGroupInput - входные данные для группы
type CreateGroupInput struct {
	Name            string
	DisplayName     string
	MailingList     string
	SiteID          *int64
	InviteOnly      bool
	Visible         bool
	ReadyForReviews bool
}

// CreateDefaultReviewerInput - входные данные для правила default reviewer
type CreateDefaultReviewerInput struct {
	Name          string
	FileRegex     string
	SiteID        *int64
	RepositoryIDs []int64
	GroupIDs      []int64
	PeopleIDs     []int64
}
