package sweeper

import (
	"context"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"

	"github.com/rs/zerolog"
)

// Refunder is the slice of the credit ledger the sweeper needs.
type Refunder interface {
	Apply(ctx context.Context, userID string, amount int, txType domain.CreditTransactionType) (int, error)
}

// Sweeper fails predictions stuck in processing past the staleness window and
// refunds their credit cost. The claim query uses "skip locked", so multiple
// instances can run concurrently.
type Sweeper struct {
	SQL       infra.SQLExecutor
	Ledger    Refunder
	Logger    zerolog.Logger
	Interval  time.Duration
	After     time.Duration
	BatchSize int
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if swept, err := s.SweepOnce(ctx); err != nil {
				s.Logger.Error().Err(err).Msg("sweep failed")
			} else if swept > 0 {
				s.Logger.Info().Int("count", swept).Msg("swept stale predictions")
			}
		}
	}
}

// SweepOnce claims one batch of stale predictions, marks them failed, and
// refunds each. It returns the number of predictions settled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	after := s.After
	if after <= 0 {
		after = 30 * time.Minute
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 50
	}
	rows, err := s.SQL.Query(ctx, sqlinline.QSweepStalePredictions, int(after.Seconds()), batch)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type sweptRow struct {
		id, userID string
		creditCost int
	}
	var swept []sweptRow
	for rows.Next() {
		var row sweptRow
		if err := rows.Scan(&row.id, &row.userID, &row.creditCost); err != nil {
			return 0, err
		}
		swept = append(swept, row)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, row := range swept {
		if row.creditCost <= 0 {
			continue
		}
		if _, err := s.Ledger.Apply(ctx, row.userID, row.creditCost, domain.TransactionRefund); err != nil {
			// The prediction is already failed; log and move on so one bad
			// refund does not block the rest of the batch.
			s.Logger.Error().Err(err).
				Str("prediction_id", row.id).
				Str("user_id", row.userID).
				Msg("refund for swept prediction failed")
			continue
		}
		s.Logger.Info().
			Str("prediction_id", row.id).
			Str("user_id", row.userID).
			Int("credits", row.creditCost).
			Msg("stale prediction failed and refunded")
	}
	return len(swept), nil
}
