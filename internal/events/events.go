// Package events доставляет события жизненного цикла внешним получателям.
// Доставка выполняется после коммита транзакции; ошибки получателей логируются
// и не влияют на результат операции.
package events

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"reviewflow/internal/domain"
	"reviewflow/internal/logger"
	"reviewflow/internal/metrics"
)

// Type - вид события
type Type string

const (
	Published       Type = "published"
	Closed          Type = "closed"
	Reopened        Type = "reopened"
	ReviewPublished Type = "review_published"
	ReplyPublished  Type = "reply_published"
)

// Event - событие жизненного цикла
type Event struct {
	Type              Type
	ReviewRequest     *domain.ReviewRequest
	User              *domain.User
	ChangeDescription *domain.ChangeDescription
	Review            *domain.Review
	OccurredAt        time.Time
}

// Sink - получатель событий
type Sink interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

// Dispatcher рассылает событие всем получателям параллельно
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
}

// NewDispatcher создаёт Dispatcher
func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		timeout: 5 * time.Second,
	}
}

// Dispatch доставляет событие и ждёт всех получателей. Никогда не возвращает ошибку.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) {
	if d == nil || len(d.sinks) == 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	requestID := logger.GetRequestID(ctx)
	// Доставка не зависит от отмены запроса, только от собственного таймаута
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	var g errgroup.Group
	for _, sink := range d.sinks {
		g.Go(func() error {
			if err := sink.Handle(ctx, event); err != nil {
				metrics.EventsDispatchedTotal.WithLabelValues(string(event.Type), sink.Name(), "error").Inc()
				log.Error().
					Str("request_id", requestID).
					Str("layer", "events").
					Str("event", string(event.Type)).
					Str("sink", sink.Name()).
					Err(err).
					Msg("Failed to deliver event")
				return nil
			}
			metrics.EventsDispatchedTotal.WithLabelValues(string(event.Type), sink.Name(), "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
}
