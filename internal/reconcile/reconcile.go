// Package reconcile пересчитывает кэшированные счётчики из связей и
// исправляет расхождения, накопленные инкрементальными обновлениями.
package reconcile

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"reviewflow/internal/metrics"
	"reviewflow/internal/storage"
)

// Report - итог одного прохода
type Report struct {
	Checked   int
	Corrected map[storage.Counter]int
}

// Reconciler проходит по всем счётчикам. Каждый счётчик пересчитывается
// в своей транзакции, чтобы не держать долгих блокировок.
type Reconciler struct {
	txmgr storage.TxManager
}

// New создаёт Reconciler
func New(txmgr storage.TxManager) *Reconciler {
	return &Reconciler{txmgr: txmgr}
}

// RunOnce пересчитывает все счётчики и возвращает количество исправлений
func (r *Reconciler) RunOnce(ctx context.Context) (*Report, error) {
	start := time.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	report := &Report{Corrected: make(map[storage.Counter]int)}

	for _, counter := range storage.AllCounters {
		var ids []int64
		err := r.txmgr.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			ids, err = tx.Counters().IDs(ctx, counter)
			return err
		})
		if err != nil {
			return report, err
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			var stored, derived int64
			err := r.txmgr.Do(ctx, func(ctx context.Context, tx storage.Tx) error {
				var err error
				if stored, err = tx.Counters().Get(ctx, counter, id); err != nil {
					return err
				}
				derived, err = tx.Counters().Recompute(ctx, counter, id)
				return err
			})
			if err != nil {
				return report, err
			}
			report.Checked++

			if counter == storage.CounterGroupIncoming {
				metrics.GroupIncomingRequests.WithLabelValues(strconv.FormatInt(id, 10)).Set(float64(derived))
			}
			if stored != derived {
				report.Corrected[counter]++
				metrics.CounterDriftTotal.WithLabelValues(string(counter)).Inc()
				log.Warn().
					Str("layer", "reconcile").
					Str("counter", string(counter)).
					Int64("id", id).
					Int64("stored", stored).
					Int64("derived", derived).
					Msg("counter drift corrected")
			}
		}
	}

	log.Info().
		Str("layer", "reconcile").
		Int("checked", report.Checked).
		Dur("duration", time.Since(start)).
		Msg("counters reconciled")

	return report, nil
}

// Run запускает RunOnce каждые interval, пока не отменён ctx
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("layer", "reconcile").Msg("counter reconciliation failed")
			}
		case <-ctx.Done():
			log.Info().Msg("stopping counter reconciliation")
			return
		}
	}
}
