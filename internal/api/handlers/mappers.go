package handlers

import (
	"reviewflow/internal/domain"
)

// mapReviewRequestToAPI конвертирует domain.ReviewRequest в API response
func mapReviewRequestToAPI(rr *domain.ReviewRequest) map[string]interface{} {
	changes := make([]map[string]interface{}, len(rr.ChangeDescriptions))
	for i := range rr.ChangeDescriptions {
		changes[i] = mapChangeDescriptionToAPI(&rr.ChangeDescriptions[i])
	}
	return map[string]interface{}{
		"id":                        rr.DisplayID(),
		"internal_id":               rr.ID,
		"site_id":                   rr.SiteID,
		"submitter_id":              rr.SubmitterID,
		"status":                    string(rr.Status),
		"public":                    rr.Public,
		"changenum":                 rr.ChangeNum,
		"repository_id":             rr.RepositoryID,
		"summary":                   rr.Summary,
		"description":               rr.Description,
		"testing_done":              rr.TestingDone,
		"bugs_closed":               rr.BugList(),
		"branch":                    rr.Branch,
		"target_groups":             groupNames(rr.TargetGroups),
		"target_people":             usernames(rr.TargetPeople),
		"screenshots":               mapScreenshots(rr.Screenshots),
		"inactive_screenshots":      mapScreenshots(rr.InactiveScreenshots),
		"file_attachments":          mapFileAttachments(rr.FileAttachments),
		"inactive_file_attachments": mapFileAttachments(rr.InactiveFileAttachments),
		"changedescriptions":        changes,
		"shipit_count":              rr.ShipItCount,
		"last_review_at":            rr.LastReviewAt,
		"created_at":                rr.CreatedAt,
		"updated_at":                rr.UpdatedAt,
	}
}

// mapDraftToAPI конвертирует domain.ReviewRequestDraft в API response
func mapDraftToAPI(d *domain.ReviewRequestDraft) map[string]interface{} {
	resp := map[string]interface{}{
		"id":                        d.ID,
		"review_request_id":         d.ReviewRequestID,
		"summary":                   d.Summary,
		"description":               d.Description,
		"testing_done":              d.TestingDone,
		"bugs_closed":               d.BugList(),
		"branch":                    d.Branch,
		"diffset_id":                d.DiffSetID,
		"target_groups":             groupNames(d.TargetGroups),
		"target_people":             usernames(d.TargetPeople),
		"screenshots":               mapScreenshots(d.Screenshots),
		"inactive_screenshots":      mapScreenshots(d.InactiveScreenshots),
		"file_attachments":          mapFileAttachments(d.FileAttachments),
		"inactive_file_attachments": mapFileAttachments(d.InactiveFileAttachments),
		"updated_at":                d.UpdatedAt,
	}
	if d.ChangeDescription != nil {
		resp["changedescription"] = d.ChangeDescription.Text
	}
	return resp
}

func mapChangeDescriptionToAPI(cd *domain.ChangeDescription) map[string]interface{} {
	return map[string]interface{}{
		"id":             cd.ID,
		"text":           cd.Text,
		"public":         cd.Public,
		"timestamp":      cd.Timestamp,
		"fields_changed": cd.FieldsChanged,
	}
}

func mapScreenshots(items []domain.Screenshot) []map[string]interface{} {
	result := make([]map[string]interface{}, len(items))
	for i, s := range items {
		result[i] = map[string]interface{}{
			"id":            s.ID,
			"caption":       s.Caption,
			"draft_caption": s.DraftCaption,
			"path":          s.Path,
		}
	}
	return result
}

func mapFileAttachments(items []domain.FileAttachment) []map[string]interface{} {
	result := make([]map[string]interface{}, len(items))
	for i, f := range items {
		result[i] = map[string]interface{}{
			"id":            f.ID,
			"caption":       f.Caption,
			"draft_caption": f.DraftCaption,
			"path":          f.Path,
			"mimetype":      f.MimeType,
		}
	}
	return result
}

func mapDiffSetToAPI(ds *domain.DiffSet) map[string]interface{} {
	files := make([]map[string]interface{}, len(ds.Files))
	for i, f := range ds.Files {
		files[i] = map[string]interface{}{
			"id":          f.ID,
			"source_file": f.SourceFile,
			"dest_file":   f.DestFile,
		}
	}
	return map[string]interface{}{
		"id":         ds.ID,
		"revision":   ds.Revision,
		"files":      files,
		"created_at": ds.CreatedAt,
	}
}

// mapReviewToAPI конвертирует domain.Review вместе с комментариями
func mapReviewToAPI(r *domain.Review) map[string]interface{} {
	comments := make([]map[string]interface{}, len(r.Comments))
	for i := range r.Comments {
		comments[i] = mapCommentToAPI(&r.Comments[i])
	}
	return map[string]interface{}{
		"id":                      r.ID,
		"review_request_id":       r.ReviewRequestID,
		"user_id":                 r.UserID,
		"public":                  r.Public,
		"ship_it":                 r.ShipIt,
		"base_reply_to_id":        r.BaseReplyToID,
		"body_top":                r.BodyTop,
		"body_bottom":             r.BodyBottom,
		"body_top_reply_to_id":    r.BodyTopReplyToID,
		"body_bottom_reply_to_id": r.BodyBottomReplyToID,
		"timestamp":               r.Timestamp,
		"comments":                comments,
	}
}

func mapCommentToAPI(c *domain.Comment) map[string]interface{} {
	resp := map[string]interface{}{
		"id":           c.ID,
		"review_id":    c.ReviewID,
		"kind":         string(c.Kind),
		"target_id":    c.TargetID,
		"reply_to_id":  c.ReplyToID,
		"text":         c.Text,
		"issue_opened": c.IssueOpened,
		"issue_status": string(c.IssueStatus),
		"timestamp":    c.Timestamp,
	}
	switch c.Kind {
	case domain.CommentKindDiff:
		resp["first_line"] = c.FirstLine
		resp["num_lines"] = c.NumLines
	case domain.CommentKindScreenshot:
		resp["x"], resp["y"], resp["w"], resp["h"] = c.X, c.Y, c.W, c.H
	}
	return resp
}

func mapUserToAPI(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
	}
}

func mapGroupToAPI(g *domain.Group) map[string]interface{} {
	return map[string]interface{}{
		"id":                     g.ID,
		"name":                   g.Name,
		"display_name":           g.DisplayName,
		"mailing_list":           g.MailingList,
		"site_id":                g.SiteID,
		"member_ids":             g.MemberIDs,
		"invite_only":            g.InviteOnly,
		"visible":                g.Visible,
		"ready_for_reviews":      g.ReadyForReviews,
		"incoming_request_count": g.IncomingRequestCount,
	}
}

func mapDefaultReviewerToAPI(dr *domain.DefaultReviewer) map[string]interface{} {
	return map[string]interface{}{
		"id":             dr.ID,
		"name":           dr.Name,
		"file_regex":     dr.FileRegex,
		"site_id":        dr.SiteID,
		"repository_ids": dr.RepositoryIDs,
		"group_ids":      dr.GroupIDs,
		"people_ids":     dr.PeopleIDs,
	}
}

func groupNames(groups []domain.Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

func usernames(users []domain.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}
