package events_test

import (
	"context"
	"errors"
	"testing"

	"reviewflow/internal/domain"
	"reviewflow/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Name() string { return "mock" }

func (m *mockSink) Handle(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestDispatch_FailingSinkDoesNotBlockOthers(t *testing.T) {
	// Arrange
	failing := &mockSink{}
	failing.On("Handle", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.Published
	})).Return(errors.New("smtp down"))
	recorder := events.NewRecorder(4)
	dispatcher := events.NewDispatcher(failing, recorder, events.LogSink{}, events.MetricsSink{})

	req := &domain.ReviewRequest{ID: 1, Status: domain.StatusPending, Public: true}

	// Act
	dispatcher.Dispatch(context.Background(), events.Event{
		Type:          events.Published,
		ReviewRequest: req,
		User:          &domain.User{ID: 1, Username: "alice"},
	})

	// Assert
	failing.AssertExpectations(t)
	got := recorder.Events()
	require.Len(t, got, 1)
	assert.Equal(t, events.Published, got[0].Type)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestDispatch_CanceledContextStillDelivers(t *testing.T) {
	recorder := events.NewRecorder(1)
	dispatcher := events.NewDispatcher(recorder)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dispatcher.Dispatch(ctx, events.Event{Type: events.Closed})

	assert.Len(t, recorder.Events(), 1)
}

func TestDispatch_NilDispatcher(t *testing.T) {
	var dispatcher *events.Dispatcher

	assert.NotPanics(t, func() {
		dispatcher.Dispatch(context.Background(), events.Event{Type: events.Reopened})
	})
}
