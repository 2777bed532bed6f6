package events

import (
	"context"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
)

// LogSink пишет события в лог
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Handle(ctx context.Context, event Event) error {
	entry := log.Info().
		Str("request_id", logger.GetRequestID(ctx)).
		Str("layer", "events").
		Str("event", string(event.Type))

	if event.ReviewRequest != nil {
		entry = entry.
			Int64("review_request_id", event.ReviewRequest.ID).
			Int64("display_id", event.ReviewRequest.DisplayID()).
			Str("status", string(event.ReviewRequest.Status))
	}
	if event.User != nil {
		entry = entry.Str("user", event.User.Username)
	}
	if event.ChangeDescription != nil {
		entry = entry.Strs("fields_changed", event.ChangeDescription.ChangedFields())
	}
	if event.Review != nil {
		entry = entry.Int64("review_id", event.Review.ID).Bool("ship_it", event.Review.ShipIt)
	}

	entry.Msg("Lifecycle event")
	return nil
}

// MetricsSink считает события в Prometheus
type MetricsSink struct{}

func (MetricsSink) Name() string { return "metrics" }

func (MetricsSink) Handle(_ context.Context, event Event) error {
	switch event.Type {
	case Published:
		metrics.ReviewRequestsPublishedTotal.Inc()
		if event.ChangeDescription != nil {
			metrics.ChangeDescriptionFields.Observe(float64(len(event.ChangeDescription.FieldsChanged)))
		}
	case Closed:
		if event.ReviewRequest != nil {
			metrics.ReviewRequestsClosedTotal.WithLabelValues(string(event.ReviewRequest.Status)).Inc()
		}
	case ReviewPublished:
		metrics.ReviewsPublishedTotal.WithLabelValues("review").Inc()
	case ReplyPublished:
		metrics.ReviewsPublishedTotal.WithLabelValues("reply").Inc()
	}
	return nil
}

// Recorder запоминает события; используется в тестах и в отладке
type Recorder struct {
	ch chan Event
}

// NewRecorder создаёт Recorder с буфером на size событий
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Event, size)}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Handle(_ context.Context, event Event) error {
	select {
	case r.ch <- event:
	default:
	}
	return nil
}

// Events возвращает накопленные события и очищает буфер
func (r *Recorder) Events() []Event {
	var result []Event
	for {
		select {
		case e := <-r.ch:
			result = append(result, e)
		default:
			return result
		}
	}
}
