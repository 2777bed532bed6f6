package domain_test

import (
	"errors"
	"testing"
	"time"

	"reviewflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRelationChange_AddedAndRemoved(t *testing.T) {
	// Arrange
	cd := domain.NewChangeDescription("", false)
	oldItems := []domain.ChangeItem{{ID: 1, Name: "core"}, {ID: 2, Name: "ui"}}
	newItems := []domain.ChangeItem{{ID: 2, Name: "ui"}, {ID: 3, Name: "infra"}}

	// Act
	cd.RecordRelationChange(domain.FieldTargetGroups, "name", oldItems, newItems)

	// Assert
	change, ok := cd.FieldsChanged[domain.FieldTargetGroups]
	require.True(t, ok)
	assert.Equal(t, []domain.ChangeItem{{ID: 3, Name: "infra"}}, change.Added)
	assert.Equal(t, []domain.ChangeItem{{ID: 1, Name: "core"}}, change.Removed)
	assert.Equal(t, oldItems, change.OldItems)
	assert.Equal(t, newItems, change.NewItems)
	assert.Equal(t, "name", change.DisplayField)
}

func TestRecordCaptionChanges_EmptyIgnored(t *testing.T) {
	cd := domain.NewChangeDescription("", false)

	cd.RecordCaptionChanges(domain.FieldScreenshotCaptions, nil)

	assert.False(t, cd.HasChanges())
}

func TestChangedFields_Sorted(t *testing.T) {
	cd := domain.NewChangeDescription("", false)
	cd.RecordFieldChange(domain.FieldSummary, "a", "b")
	cd.RecordDiffAdded(domain.ChangeItem{ID: 7})
	cd.RecordListChange(domain.FieldBugsClosed, []string{"1"}, []string{"2"})

	assert.Equal(t, []string{"bugs_closed", "diff", "summary"}, cd.ChangedFields())
}

func TestFinalize(t *testing.T) {
	cd := domain.NewChangeDescription("text", false)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	cd.Finalize(now)

	assert.True(t, cd.Public)
	assert.Equal(t, now, cd.Timestamp)
}

func TestError_IsComparesCode(t *testing.T) {
	err := domain.InvalidArgument("summary is required")

	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.False(t, errors.Is(err, domain.ErrPermissionDenied))
	assert.True(t, domain.IsDomainError(err))
}

func TestStatusCodes_RoundTrip(t *testing.T) {
	for _, status := range []domain.ReviewRequestStatus{domain.StatusPending, domain.StatusSubmitted, domain.StatusDiscarded} {
		parsed, err := domain.StatusFromCode(status.Code())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}

	_, err := domain.StatusFromCode("X")
	assert.Error(t, err)
}
