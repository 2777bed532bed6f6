package domain

import "fmt"

// ReviewRequestStatus - статус review request
type ReviewRequestStatus string

const (
	StatusPending   ReviewRequestStatus = "pending"
	StatusSubmitted ReviewRequestStatus = "submitted"
	StatusDiscarded ReviewRequestStatus = "discarded"
)

// Code возвращает односимвольный код статуса, который хранится в БД
func (s ReviewRequestStatus) Code() string {
	switch s {
	case StatusPending:
		return "P"
	case StatusSubmitted:
		return "S"
	case StatusDiscarded:
		return "D"
	default:
		return ""
	}
}

// Valid сообщает, известен ли статус
func (s ReviewRequestStatus) Valid() bool {
	return s.Code() != ""
}

// StatusFromCode разбирает код статуса из БД
func StatusFromCode(code string) (ReviewRequestStatus, error) {
	switch code {
	case "P":
		return StatusPending, nil
	case "S":
		return StatusSubmitted, nil
	case "D":
		return StatusDiscarded, nil
	default:
		return "", fmt.Errorf("unknown review request status code %q", code)
	}
}

// IssueStatus - состояние issue, открытого комментарием
type IssueStatus string

const (
	IssueNone     IssueStatus = ""
	IssueOpen     IssueStatus = "open"
	IssueResolved IssueStatus = "resolved"
	IssueDropped  IssueStatus = "dropped"
)

// Code возвращает односимвольный код для БД
func (s IssueStatus) Code() string {
	switch s {
	case IssueOpen:
		return "O"
	case IssueResolved:
		return "R"
	case IssueDropped:
		return "D"
	default:
		return ""
	}
}

// IssueStatusFromCode разбирает код issue из БД; пустой код означает отсутствие issue
func IssueStatusFromCode(code string) (IssueStatus, error) {
	switch code {
	case "":
		return IssueNone, nil
	case "O":
		return IssueOpen, nil
	case "R":
		return IssueResolved, nil
	case "D":
		return IssueDropped, nil
	default:
		return "", fmt.Errorf("unknown issue status code %q", code)
	}
}

// ParseIssueStatus разбирает имя статуса ("open", "resolved", "dropped")
func ParseIssueStatus(s string) (IssueStatus, error) {
	switch IssueStatus(s) {
	case IssueOpen, IssueResolved, IssueDropped:
		return IssueStatus(s), nil
	default:
		return "", InvalidArgument("invalid issue status %q", s)
	}
}

// CommentKind - к чему относится комментарий
type CommentKind string

const (
	CommentKindDiff           CommentKind = "diff"
	CommentKindScreenshot     CommentKind = "screenshot"
	CommentKindFileAttachment CommentKind = "file_attachment"
)

// Capability - право, выдаваемое провайдером идентификации
type Capability string

const (
	CapabilityEditReviewRequest   Capability = "reviews.can_edit_reviewrequest"
	CapabilityChangeStatus        Capability = "reviews.can_change_status"
	CapabilitySubmitAsAnotherUser Capability = "reviews.can_submit_as_another_user"
)
