package service_test

import (
	"context"
	"testing"
	"time"

	"reviewflow/internal/domain"
	"reviewflow/internal/events"
	"reviewflow/internal/service"
	"reviewflow/internal/storage"
	"reviewflow/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	svc      *service.Service
	recorder *events.Recorder
	admin    *domain.User
	alice    *domain.User
	bob      *domain.User
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.New(),
		recorder: events.NewRecorder(64),
		admin:    &domain.User{ID: 1, Username: "admin", Authenticated: true, Superuser: true},
		alice: &domain.User{
			ID:            2,
			Username:      "alice",
			Authenticated: true,
			Capabilities:  []domain.Capability{domain.CapabilityEditReviewRequest},
		},
		bob: &domain.User{ID: 3, Username: "bob", Authenticated: true},
	}

	opts = append([]service.Option{
		service.WithDispatcher(events.NewDispatcher(f.recorder)),
		service.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	f.svc = service.New(f.store, opts...)

	for _, u := range []*domain.User{f.admin, f.alice, f.bob} {
		_, err := f.svc.RegisterUser(context.Background(), f.admin, &domain.RegisterUserInput{
			ID:       u.ID,
			Username: u.Username,
		})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) create(t *testing.T) *domain.ReviewRequest {
	t.Helper()
	req, err := f.svc.CreateReviewRequest(context.Background(), f.alice, &domain.CreateReviewRequestInput{})
	require.NoError(t, err)
	return req
}

func (f *fixture) group(t *testing.T, name string, inviteOnly bool) *domain.Group {
	t.Helper()
	group, err := f.svc.CreateGroup(context.Background(), f.admin, &domain.CreateGroupInput{
		Name:            name,
		InviteOnly:      inviteOnly,
		Visible:         true,
		ReadyForReviews: true,
	})
	require.NoError(t, err)
	return group
}

func (f *fixture) edit(t *testing.T, id int64, input *domain.UpdateDraftInput) {
	t.Helper()
	_, err := f.svc.UpdateDraft(context.Background(), f.alice, id, input)
	require.NoError(t, err)
}

func (f *fixture) publish(t *testing.T, id int64) *domain.PublishResult {
	t.Helper()
	result, err := f.svc.PublishReviewRequest(context.Background(), f.alice, id)
	require.NoError(t, err)
	return result
}

func (f *fixture) counter(t *testing.T, counter storage.Counter, id int64) int64 {
	t.Helper()
	var value int64
	err := f.store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		var err error
		value, err = tx.Counters().Get(ctx, counter, id)
		return err
	})
	require.NoError(t, err)
	return value
}

// assertCountersConsistent сверяет накопленные счётчики с пересчитанными
func (f *fixture) assertCountersConsistent(t *testing.T) {
	t.Helper()
	err := f.store.Do(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		for _, counter := range storage.AllCounters {
			ids, err := tx.Counters().IDs(ctx, counter)
			require.NoError(t, err)
			for _, id := range ids {
				stored, err := tx.Counters().Get(ctx, counter, id)
				require.NoError(t, err)
				derived, err := tx.Counters().Recompute(ctx, counter, id)
				require.NoError(t, err)
				assert.Equal(t, derived, stored, "counter %s for id %d drifted", counter, id)
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func (f *fixture) eventsOf(kind events.Type) []events.Event {
	result := make([]events.Event, 0)
	for _, e := range f.recorder.Events() {
		if e.Type == kind {
			result = append(result, e)
		}
	}
	return result
}

func ptr[T any](v T) *T {
	return &v
}

func TestPublish_FirstPublishHasNoChangeDescription(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("first")})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	assert.Nil(t, result.ChangeDescription)
	assert.True(t, result.ReviewRequest.Public)
	assert.Equal(t, "first", result.ReviewRequest.Summary)
	assert.Empty(t, result.ReviewRequest.ChangeDescriptions)
	assert.Len(t, f.eventsOf(events.Published), 1)
}

func TestPublish_SummaryOnlyChange(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("first")})
	f.publish(t, req.ID)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("second")})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	require.NotNil(t, result.ChangeDescription)
	assert.Equal(t, []string{domain.FieldSummary}, result.ChangeDescription.ChangedFields())
	change := result.ChangeDescription.FieldsChanged[domain.FieldSummary]
	assert.Equal(t, []string{"first"}, change.Old)
	assert.Equal(t, []string{"second"}, change.New)
	assert.True(t, result.ChangeDescription.Public)
	assert.Equal(t, "second", result.ReviewRequest.Summary)
	assert.Len(t, result.ReviewRequest.ChangeDescriptions, 1)
}

func TestPublish_NoDifferencesOnPublicRequest(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("first")})
	f.publish(t, req.ID)
	_, err := f.svc.GetDraft(context.Background(), f.alice, req.ID)
	require.NoError(t, err)

	// Act
	result := f.publish(t, req.ID)

	// Assert
	assert.Nil(t, result.ChangeDescription)
	assert.Empty(t, result.ReviewRequest.ChangeDescriptions)
}

func TestPublish_BugsComparedAsSet(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{BugsClosed: ptr("12, 3")})
	f.publish(t, req.ID)
	f.edit(t, req.ID, &domain.UpdateDraftInput{BugsClosed: ptr("3 12 12")})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	assert.Nil(t, result.ChangeDescription)
	assert.Equal(t, "3,12", result.ReviewRequest.BugsClosed)
}

func TestPublish_SummaryTruncated(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	long := ""
	for len(long) < 400 {
		long += "Sentence number. "
	}
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr(long)})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	assert.LessOrEqual(t, len([]rune(result.ReviewRequest.Summary)), domain.MaxSummaryLength)
	assert.Equal(t, domain.TruncateSummary(long), result.ReviewRequest.Summary)
}

func TestPublish_TargetChangesRecorded(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.group(t, "core", false)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("s")})
	f.publish(t, req.ID)
	f.edit(t, req.ID, &domain.UpdateDraftInput{
		TargetGroups: &[]string{"core"},
		TargetPeople: &[]string{"bob", " bob "},
	})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	require.NotNil(t, result.ChangeDescription)
	assert.Equal(t,
		[]string{domain.FieldTargetGroups, domain.FieldTargetPeople},
		result.ChangeDescription.ChangedFields())
	people := result.ChangeDescription.FieldsChanged[domain.FieldTargetPeople]
	require.Len(t, people.Added, 1)
	assert.Equal(t, "bob", people.Added[0].Name)
	assert.Equal(t, "username", people.DisplayField)
	assert.Len(t, result.ReviewRequest.TargetPeople, 1)
}

func TestUpdateDraft_UnknownGroup(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.UpdateDraft(context.Background(), f.alice, req.ID, &domain.UpdateDraftInput{
		TargetGroups: &[]string{"ghosts"},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateDraft_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.UpdateDraft(context.Background(), f.bob, req.ID, &domain.UpdateDraftInput{Summary: ptr("x")})

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestClose_TwiceUpdatesText(t *testing.T) {
	// Arrange
	f := newFixture(t)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("s")})
	f.publish(t, req.ID)
	ctx := context.Background()

	// Act
	closed, err := f.svc.CloseReviewRequest(ctx, f.alice, req.ID, &domain.CloseInput{
		Type:        domain.StatusSubmitted,
		Description: "done",
	})
	require.NoError(t, err)
	again, err := f.svc.CloseReviewRequest(ctx, f.alice, req.ID, &domain.CloseInput{
		Type:        domain.StatusSubmitted,
		Description: "done v2",
	})
	require.NoError(t, err)

	// Assert
	require.Len(t, closed.ChangeDescriptions, 1)
	status := closed.ChangeDescriptions[0].FieldsChanged[domain.FieldStatus]
	assert.Equal(t, []string{"P"}, status.Old)
	assert.Equal(t, []string{"S"}, status.New)

	require.Len(t, again.ChangeDescriptions, 1)
	assert.Equal(t, "done v2", again.ChangeDescriptions[0].Text)
	assert.Equal(t, domain.StatusSubmitted, again.Status)
	assert.Len(t, f.eventsOf(events.Closed), 1)
}

func TestClose_InvalidType(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.CloseReviewRequest(context.Background(), f.alice, req.ID, &domain.CloseInput{
		Type: domain.StatusPending,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestClose_ChangeStatusCapability(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)
	closer := &domain.User{
		ID:            3,
		Username:      "bob",
		Authenticated: true,
		Capabilities:  []domain.Capability{domain.CapabilityChangeStatus},
	}

	closed, err := f.svc.CloseReviewRequest(context.Background(), closer, req.ID, &domain.CloseInput{
		Type: domain.StatusDiscarded,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDiscarded, closed.Status)
}

func TestReopen_FromDiscardedRoundTrip(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("s")})
	before := f.publish(t, req.ID).ReviewRequest

	// Act
	_, err := f.svc.CloseReviewRequest(ctx, f.alice, req.ID, &domain.CloseInput{Type: domain.StatusDiscarded})
	require.NoError(t, err)
	reopened, err := f.svc.ReopenReviewRequest(ctx, f.alice, req.ID)
	require.NoError(t, err)
	draft, err := f.svc.GetDraft(ctx, f.alice, req.ID)
	require.NoError(t, err)
	result := f.publish(t, req.ID)

	// Assert
	assert.False(t, reopened.Public)
	assert.Equal(t, domain.StatusPending, reopened.Status)
	require.NotNil(t, draft.ChangeDescription)
	assert.Contains(t, draft.ChangeDescription.FieldsChanged, domain.FieldStatus)

	assert.True(t, result.ReviewRequest.Public)
	assert.Len(t, result.ReviewRequest.ChangeDescriptions, len(before.ChangeDescriptions)+2)
	assert.Len(t, f.eventsOf(events.Reopened), 1)
	f.assertCountersConsistent(t)
}

func TestReopen_FromSubmittedStaysPublic(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.publish(t, req.ID)
	_, err := f.svc.CloseReviewRequest(ctx, f.alice, req.ID, &domain.CloseInput{Type: domain.StatusSubmitted})
	require.NoError(t, err)

	// Act
	reopened, err := f.svc.ReopenReviewRequest(ctx, f.alice, req.ID)
	require.NoError(t, err)

	// Assert
	assert.True(t, reopened.Public)
	assert.Equal(t, domain.StatusPending, reopened.Status)
	require.Len(t, reopened.ChangeDescriptions, 2)
	status := reopened.ChangeDescriptions[1].FieldsChanged[domain.FieldStatus]
	assert.Equal(t, []string{"S"}, status.Old)
	assert.Equal(t, []string{"P"}, status.New)
	assert.Len(t, f.eventsOf(events.Reopened), 1)
}

func TestReopen_PendingIsNoop(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	reopened, err := f.svc.ReopenReviewRequest(context.Background(), f.alice, req.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, reopened.Status)
	assert.Empty(t, reopened.ChangeDescriptions)
	assert.Empty(t, f.eventsOf(events.Reopened))
}

func TestCounters_SequenceMatchesRecompute(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	core := f.group(t, "core", false)
	_, err := f.svc.AddGroupMember(ctx, f.admin, core.ID, f.bob.ID)
	require.NoError(t, err)

	first := f.create(t)
	second := f.create(t)
	targets := &domain.UpdateDraftInput{
		TargetGroups: &[]string{"core"},
		TargetPeople: &[]string{"bob"},
	}

	// Act
	f.edit(t, first.ID, targets)
	f.publish(t, first.ID)
	require.NoError(t, f.svc.StarReviewRequest(ctx, f.bob, first.ID))
	f.edit(t, second.ID, targets)
	f.publish(t, second.ID)
	assert.Equal(t, int64(2), f.counter(t, storage.CounterGroupIncoming, core.ID))

	_, err = f.svc.CloseReviewRequest(ctx, f.alice, first.ID, &domain.CloseInput{Type: domain.StatusSubmitted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.counter(t, storage.CounterGroupIncoming, core.ID))

	_, err = f.svc.ReopenReviewRequest(ctx, f.alice, first.ID)
	require.NoError(t, err)
	f.edit(t, first.ID, &domain.UpdateDraftInput{TargetPeople: &[]string{}})
	f.publish(t, first.ID)
	require.NoError(t, f.svc.DeleteReviewRequest(ctx, f.alice, second.ID))

	// Assert
	assert.Equal(t, int64(1), f.counter(t, storage.CounterGroupIncoming, core.ID))
	f.assertCountersConsistent(t)
}

func TestStar_Idempotent(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.publish(t, req.ID)

	// Act
	require.NoError(t, f.svc.StarReviewRequest(ctx, f.bob, req.ID))
	require.NoError(t, f.svc.StarReviewRequest(ctx, f.bob, req.ID))

	// Assert
	f.assertCountersConsistent(t)
	require.NoError(t, f.svc.UnstarReviewRequest(ctx, f.bob, req.ID))
	require.NoError(t, f.svc.UnstarReviewRequest(ctx, f.bob, req.ID))
	f.assertCountersConsistent(t)
}

func TestCanView_InviteOnlyGroup(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	secret := f.group(t, "secret", true)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{TargetGroups: &[]string{"secret"}})
	f.publish(t, req.ID)

	// Act
	_, hiddenErr := f.svc.GetReviewRequest(ctx, f.bob, req.ID)
	_, err := f.svc.AddGroupMember(ctx, f.admin, secret.ID, f.bob.ID)
	require.NoError(t, err)
	visible, visibleErr := f.svc.GetReviewRequest(ctx, f.bob, req.ID)

	// Assert
	assert.ErrorIs(t, hiddenErr, domain.ErrResourceNotFound)
	require.NoError(t, visibleErr)
	assert.Equal(t, req.ID, visible.ID)
}

func TestCanView_UnpublishedHidden(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.GetReviewRequest(context.Background(), f.bob, req.ID)

	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestAttachDiff_AddsDefaultReviewers(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	pyTeam := f.group(t, "py-team", false)
	_, err := f.svc.CreateDefaultReviewer(ctx, f.admin, &domain.CreateDefaultReviewerInput{
		Name:      "python",
		FileRegex: `.*\.py$`,
		GroupIDs:  []int64{pyTeam.ID},
	})
	require.NoError(t, err)
	req := f.create(t)

	// Act
	diffset, err := f.svc.AttachDiff(ctx, f.alice, req.ID, &domain.AttachDiffInput{
		Files: []domain.FileDiff{
			{SourceFile: "app/main.py", DestFile: "app/main.py"},
			{SourceFile: "README.md", DestFile: "README.md"},
		},
	})
	require.NoError(t, err)
	draft, err := f.svc.GetDraft(ctx, f.alice, req.ID)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, diffset.Revision)
	require.Len(t, draft.TargetGroups, 1)
	assert.Equal(t, "py-team", draft.TargetGroups[0].Name)
	assert.Empty(t, draft.TargetPeople)
}

func TestAttachDiff_RecordedOnRepublish(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	files := &domain.AttachDiffInput{Files: []domain.FileDiff{{SourceFile: "main.go"}}}
	_, err := f.svc.AttachDiff(ctx, f.alice, req.ID, files)
	require.NoError(t, err)
	f.publish(t, req.ID)

	// Act
	second, err := f.svc.AttachDiff(ctx, f.alice, req.ID, files)
	require.NoError(t, err)
	result := f.publish(t, req.ID)

	// Assert
	assert.Equal(t, 2, second.Revision)
	require.NotNil(t, result.ChangeDescription)
	diff := result.ChangeDescription.FieldsChanged[domain.FieldDiff]
	require.Len(t, diff.Added, 1)
	assert.Equal(t, second.ID, diff.Added[0].ID)
	assert.Empty(t, diff.Removed)
}

func TestAttachDiff_EmptyRejected(t *testing.T) {
	f := newFixture(t)
	req := f.create(t)

	_, err := f.svc.AttachDiff(context.Background(), f.alice, req.ID, &domain.AttachDiffInput{})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestScreenshots_CaptionChange(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	shot, err := f.svc.AddScreenshot(ctx, f.alice, req.ID, &domain.AttachmentInput{Caption: "old", Path: "a.png"})
	require.NoError(t, err)
	f.publish(t, req.ID)
	f.edit(t, req.ID, &domain.UpdateDraftInput{ScreenshotCaptions: map[int64]string{shot.ID: "new"}})

	// Act
	result := f.publish(t, req.ID)

	// Assert
	require.NotNil(t, result.ChangeDescription)
	captions := result.ChangeDescription.FieldsChanged[domain.FieldScreenshotCaptions].Captions
	assert.Equal(t, domain.CaptionChange{Old: "old", New: "new"}, captions[shot.ID])
	require.Len(t, result.ReviewRequest.Screenshots, 1)
	assert.Equal(t, "new", result.ReviewRequest.Screenshots[0].Caption)
}

func TestScreenshots_RemoveGoesInactiveSilently(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	shot, err := f.svc.AddScreenshot(ctx, f.alice, req.ID, &domain.AttachmentInput{Caption: "c", Path: "a.png"})
	require.NoError(t, err)
	f.publish(t, req.ID)

	// Act
	require.NoError(t, f.svc.RemoveScreenshot(ctx, f.alice, req.ID, shot.ID))
	result := f.publish(t, req.ID)

	// Assert
	assert.Empty(t, result.ReviewRequest.Screenshots)
	require.Len(t, result.ReviewRequest.InactiveScreenshots, 1)
	require.NotNil(t, result.ChangeDescription)
	assert.Equal(t, []string{domain.FieldScreenshots}, result.ChangeDescription.ChangedFields())
}

func TestDiscardDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{Summary: ptr("draft only")})

	require.NoError(t, f.svc.DiscardDraft(ctx, f.alice, req.ID))
	require.NoError(t, f.svc.DiscardDraft(ctx, f.alice, req.ID))
	result := f.publish(t, req.ID)

	assert.Empty(t, result.ReviewRequest.Summary)
}

func TestCreate_SubmitAsRequiresCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, denied := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{SubmitAs: "bob"})
	created, err := f.svc.CreateReviewRequest(ctx, f.admin, &domain.CreateReviewRequestInput{SubmitAs: "bob"})

	assert.ErrorIs(t, denied, domain.ErrPermissionDenied)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, created.SubmitterID)
}

func TestCreate_LocalIDsPerSite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.store.SeedSite(domain.Site{Name: "team", Public: true})

	first, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{SiteID: &site.ID})
	require.NoError(t, err)
	second, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{SiteID: &site.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.DisplayID())
	assert.Equal(t, int64(2), second.DisplayID())
}

func TestUpdateChangeNum_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.store.SeedRepository(domain.Repository{Name: "core", Public: true})
	first, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{RepositoryID: &repo.ID})
	require.NoError(t, err)
	second, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{RepositoryID: &repo.ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateChangeNum(ctx, f.alice, first.ID, 42)
	require.NoError(t, err)
	_, err = f.svc.UpdateChangeNum(ctx, f.alice, second.ID, 42)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

type mockChangesets struct {
	mock.Mock
}

func (m *mockChangesets) GetChangeset(ctx context.Context, repository *domain.Repository, changeNum int64) (*domain.Changeset, error) {
	args := m.Called(ctx, repository, changeNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Changeset), args.Error(1)
}

func TestUpdateFromChangeset(t *testing.T) {
	// Arrange
	source := &mockChangesets{}
	f := newFixture(t, service.WithChangesetSource(source))
	ctx := context.Background()
	repo := f.store.SeedRepository(domain.Repository{Name: "core", Public: true})
	req, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{RepositoryID: &repo.ID})
	require.NoError(t, err)
	f.edit(t, req.ID, &domain.UpdateDraftInput{TestingDone: ptr("ran unit tests")})

	source.On("GetChangeset", mock.Anything, mock.MatchedBy(func(r *domain.Repository) bool {
		return r.ID == repo.ID
	}), int64(42)).Return(&domain.Changeset{
		ChangeNum:   42,
		Summary:     "Fix parser",
		Description: "Handles empty input",
		BugsClosed:  []string{"12", "3"},
		Pending:     true,
	}, nil)

	// Act
	draft, err := f.svc.UpdateFromChangeset(ctx, f.alice, req.ID, 42)

	// Assert
	require.NoError(t, err)
	source.AssertExpectations(t)
	assert.Equal(t, "Fix parser", draft.Summary)
	assert.Equal(t, "Handles empty input", draft.Description)
	assert.Equal(t, "ran unit tests", draft.TestingDone)
	assert.Equal(t, "3,12", draft.BugsClosed)
}

func TestUpdateFromChangeset_NotFound(t *testing.T) {
	source := &mockChangesets{}
	f := newFixture(t, service.WithChangesetSource(source))
	ctx := context.Background()
	repo := f.store.SeedRepository(domain.Repository{Name: "core", Public: true})
	req, err := f.svc.CreateReviewRequest(ctx, f.alice, &domain.CreateReviewRequestInput{RepositoryID: &repo.ID})
	require.NoError(t, err)
	source.On("GetChangeset", mock.Anything, mock.Anything, int64(7)).Return(nil, domain.ErrChangesetNotFound)

	_, err = f.svc.UpdateFromChangeset(ctx, f.alice, req.ID, 7)

	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}

func TestReviews_ShipItAndParticipants(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.publish(t, req.ID)

	// Act
	review, err := f.svc.CreateReview(ctx, f.bob, req.ID, &domain.CreateReviewInput{BodyTop: "lgtm", ShipIt: true})
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.bob, review.ID, &domain.CommentInput{
		Kind:        domain.CommentKindDiff,
		TargetID:    1,
		Text:        "typo here",
		IssueOpened: true,
	})
	require.NoError(t, err)
	_, err = f.svc.PublishReview(ctx, f.bob, review.ID)
	require.NoError(t, err)

	reply, err := f.svc.CreateReview(ctx, f.alice, req.ID, &domain.CreateReviewInput{
		BodyTop:       "thanks",
		ShipIt:        true,
		BaseReplyToID: &review.ID,
	})
	require.NoError(t, err)
	_, err = f.svc.PublishReview(ctx, f.alice, reply.ID)
	require.NoError(t, err)

	// Assert
	reloaded, err := f.svc.GetReviewRequest(ctx, f.alice, req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.ShipItCount)
	require.NotNil(t, reloaded.LastReviewAt)
	assert.False(t, reply.ShipIt)

	participants, err := f.svc.ListParticipants(ctx, f.alice, req.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "bob", participants[0].Username)
	assert.Equal(t, "alice", participants[1].Username)

	reviews, err := f.svc.ListPublicReviews(ctx, f.alice, req.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)

	recorded := f.recorder.Events()
	kinds := make([]events.Type, 0, len(recorded))
	for _, e := range recorded {
		kinds = append(kinds, e.Type)
	}
	assert.Contains(t, kinds, events.ReviewPublished)
	assert.Contains(t, kinds, events.ReplyPublished)
	f.assertCountersConsistent(t)
}

func TestReviews_PublishTwiceRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.publish(t, req.ID)
	review, err := f.svc.CreateReview(ctx, f.bob, req.ID, &domain.CreateReviewInput{BodyTop: "ok"})
	require.NoError(t, err)
	_, err = f.svc.PublishReview(ctx, f.bob, review.ID)
	require.NoError(t, err)

	_, err = f.svc.PublishReview(ctx, f.bob, review.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSetIssueStatus(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	req := f.create(t)
	f.publish(t, req.ID)
	review, err := f.svc.CreateReview(ctx, f.bob, req.ID, &domain.CreateReviewInput{})
	require.NoError(t, err)
	comment, err := f.svc.AddComment(ctx, f.bob, review.ID, &domain.CommentInput{
		Kind:        domain.CommentKindDiff,
		Text:        "fix me",
		IssueOpened: true,
	})
	require.NoError(t, err)
	_, err = f.svc.PublishReview(ctx, f.bob, review.ID)
	require.NoError(t, err)

	// Act
	resolved, err := f.svc.SetIssueStatus(ctx, f.alice, comment.ID, domain.IssueResolved)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.IssueResolved, resolved.IssueStatus)
	_, err = f.svc.SetIssueStatus(ctx, f.alice, comment.ID, domain.IssueStatus("bogus"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDelete_ReleasesCounters(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	core := f.group(t, "core", false)
	req := f.create(t)
	f.edit(t, req.ID, &domain.UpdateDraftInput{TargetGroups: &[]string{"core"}})
	f.publish(t, req.ID)
	review, err := f.svc.CreateReview(ctx, f.bob, req.ID, &domain.CreateReviewInput{ShipIt: true})
	require.NoError(t, err)
	_, err = f.svc.PublishReview(ctx, f.bob, review.ID)
	require.NoError(t, err)

	// Act
	require.NoError(t, f.svc.DeleteReviewRequest(ctx, f.alice, req.ID))

	// Assert
	assert.Equal(t, int64(0), f.counter(t, storage.CounterGroupIncoming, core.ID))
	_, err = f.svc.GetReviewRequest(ctx, f.alice, req.ID)
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
	f.assertCountersConsistent(t)
}

func TestListGroups_HidesInvisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.group(t, "core", false)
	_, err := f.svc.CreateGroup(ctx, f.admin, &domain.CreateGroupInput{Name: "hidden"})
	require.NoError(t, err)

	groups, err := f.svc.ListGroups(ctx, f.bob, nil)

	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "core", groups[0].Name)
}

func TestCreateGroup_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.group(t, "core", false)

	_, err := f.svc.CreateGroup(context.Background(), f.admin, &domain.CreateGroupInput{Name: "core"})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateDefaultReviewer_InvalidRegex(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateDefaultReviewer(context.Background(), f.admin, &domain.CreateDefaultReviewerInput{
		Name:      "broken",
		FileRegex: "([",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
