// Package recycle implements the recycling sweeper: it scans active
// assignments past the recycle window and returns them to the pool with
// version-gated writes. Protected and closed leads are never touched.
package recycle

import (
	"context"
	"time"

	"hopper_backend/internal/hopper/ports"
	"hopper_backend/platform/logger"
)

// Sweeper reclaims stale assignments back into the pool.
type Sweeper struct {
	store ports.LeadStore
	log   *logger.Logger
}

// New creates a recycling sweeper.
func New(store ports.LeadStore, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, log: log}
}

// Sweep reclaims every recyclable lead whose assigned_at is strictly older
// than now minus window, in batches of batchSize. It is idempotent and safe
// to run concurrently with itself and with assignment: a version mismatch
// means the lead was touched since the scan and is silently skipped.
//
// Cancellation is honored between batches; reclaims already committed are
// kept, and the next sweep resumes the remainder.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time, window time.Duration, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	cutoff := now.Add(-window)
	reclaimed := 0
	scanned := 0
	skipped := 0

	for {
		if err := ctx.Err(); err != nil {
			s.logOutcome(scanned, reclaimed, skipped, true)
			return reclaimed, err
		}

		batch, err := s.store.SelectExpired(ctx, cutoff, batchSize)
		if err != nil {
			s.logOutcome(scanned, reclaimed, skipped, true)
			return reclaimed, err
		}
		if len(batch) == 0 {
			break
		}

		scanned += len(batch)
		progressed := false

		for _, lead := range batch {
			ok, err := s.store.ReleaseLead(ctx, lead.ID, lead.Version)
			if err != nil {
				s.logOutcome(scanned, reclaimed, skipped, true)
				return reclaimed, err
			}
			if !ok {
				// Touched between scan and write; the current state is
				// more recent and authoritative.
				skipped++
				continue
			}
			reclaimed++
			progressed = true
		}

		if len(batch) < batchSize {
			break
		}
		if !progressed {
			// A full batch of lost races: leave the remainder to the next tick
			// rather than re-scanning the same contested range.
			break
		}
	}

	s.logOutcome(scanned, reclaimed, skipped, false)
	return reclaimed, nil
}

func (s *Sweeper) logOutcome(scanned, reclaimed, skipped int, aborted bool) {
	if s.log != nil {
		s.log.SweepCompleted(scanned, reclaimed, skipped, aborted)
	}
}
