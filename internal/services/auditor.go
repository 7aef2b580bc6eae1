package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"dilemmas/internal/store"
)

// Drift is a dilemma whose denunciation counter disagrees with its rows.
type Drift struct {
	DilemmaID uint  `json:"dilemma_id"`
	Counter   int   `json:"counter"`
	Verified  int64 `json:"verified"`
}

// CounterAuditor rechecks total_denunciations against a COUNT(*) of the
// denunciation rows in the background. The counter stays authoritative for
// the deactivation threshold; the auditor only reports (or, on demand,
// repairs) disagreement.
type CounterAuditor struct {
	// OnCheck, when set, is called by the worker after each checked id.
	OnCheck func(dilemmaID uint)

	repo      store.Repository
	queue     chan uint
	pending   map[uint]bool
	mu        sync.Mutex
	interval  time.Duration
	batchSize int
}

func NewCounterAuditor(repo store.Repository) *CounterAuditor {
	return &CounterAuditor{
		repo:      repo,
		queue:     make(chan uint, 1000),
		pending:   make(map[uint]bool),
		interval:  500 * time.Millisecond,
		batchSize: 50,
	}
}

// Start runs the worker until ctx is done.
func (a *CounterAuditor) Start(ctx context.Context) {
	go a.worker(ctx)
}

// ScheduleCheck queues a dilemma for checking. Ids already queued are
// skipped, and a full queue drops the request rather than block the caller.
func (a *CounterAuditor) ScheduleCheck(dilemmaID uint) {
	if a == nil {
		return
	}

	a.mu.Lock()
	if a.pending[dilemmaID] {
		a.mu.Unlock()
		return
	}
	a.pending[dilemmaID] = true
	a.mu.Unlock()

	select {
	case a.queue <- dilemmaID:
	default:
		a.mu.Lock()
		delete(a.pending, dilemmaID)
		a.mu.Unlock()
		log.Printf("counter audit queue full, skipping dilemma %d", dilemmaID)
	}
}

func (a *CounterAuditor) worker(ctx context.Context) {
	batch := make([]uint, 0, a.batchSize)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-a.queue:
			batch = append(batch, id)
			if len(batch) >= a.batchSize {
				a.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (a *CounterAuditor) processBatch(ctx context.Context, ids []uint) {
	for _, id := range ids {
		if _, _, err := a.Check(ctx, id); err != nil {
			log.Printf("counter audit of dilemma %d failed: %v", id, err)
		}
		if a.OnCheck != nil {
			a.OnCheck(id)
		}

		a.mu.Lock()
		delete(a.pending, id)
		a.mu.Unlock()
	}
}

// Check compares one dilemma's counter with its rows and logs any drift.
func (a *CounterAuditor) Check(ctx context.Context, dilemmaID uint) (Drift, bool, error) {
	d, err := a.repo.FindDilemma(ctx, dilemmaID)
	if err != nil {
		return Drift{}, false, fmt.Errorf("load dilemma: %w", err)
	}
	verified, err := a.repo.CountDenunciations(ctx, dilemmaID)
	if err != nil {
		return Drift{}, false, fmt.Errorf("count denunciations: %w", err)
	}

	drift := Drift{DilemmaID: dilemmaID, Counter: d.TotalDenunciations, Verified: verified}
	if int64(drift.Counter) == drift.Verified {
		return drift, false, nil
	}
	log.Printf("denunciation counter drift on dilemma %d: counter=%d rows=%d", dilemmaID, drift.Counter, drift.Verified)
	return drift, true, nil
}

// AuditAll checks every denounced dilemma. With repair set, drifting
// counters are overwritten with the verified count.
func (a *CounterAuditor) AuditAll(ctx context.Context, repair bool) ([]Drift, error) {
	dilemmas, err := a.repo.ListDenouncedDilemmas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list denounced dilemmas: %w", err)
	}

	drifts := make([]Drift, 0)
	for _, d := range dilemmas {
		if int64(d.TotalDenunciations) == d.VerifiedDenunciations {
			continue
		}
		drift := Drift{DilemmaID: d.ID, Counter: d.TotalDenunciations, Verified: d.VerifiedDenunciations}
		drifts = append(drifts, drift)
		if !repair {
			continue
		}
		if err := a.repo.SetDenunciationCount(ctx, d.ID, int(d.VerifiedDenunciations)); err != nil {
			return drifts, fmt.Errorf("repair dilemma %d: %w", d.ID, err)
		}
		log.Printf("repaired denunciation counter of dilemma %d: %d -> %d", d.ID, drift.Counter, drift.Verified)
	}
	return drifts, nil
}
