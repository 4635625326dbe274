package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jglobalproperties/estate_api/internal/domain"
	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

const (
	// DefaultDebounceWindow collects events for the same parent within this duration
	DefaultDebounceWindow = 1 * time.Second

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond

	attemptTimeout = 5 * time.Second
)

// Recomputer rebuilds stored aggregates from the current review and comment rows
type Recomputer interface {
	RecomputeListingAggregate(ctx context.Context, ref domain.ParentRef) error
	RecomputeBlogAggregate(ctx context.Context, blogID uuid.UUID) error
}

// parent identifies a listing or a blog
type parent struct {
	kind string
	id   uuid.UUID
}

func (p parent) String() string {
	return p.kind + ":" + p.id.String()
}

// Reconciler consumes moderation events and recomputes the aggregate of each
// affected parent once per debounce window
type Reconciler struct {
	recomputer Recomputer
	window     time.Duration
	logger     *logger.Logger

	// Debouncing state
	mu         sync.Mutex
	pending    map[parent]*pendingUpdate
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

type pendingUpdate struct {
	parent    parent
	timestamp time.Time
	timer     *time.Timer
}

// NewReconciler creates a reconciler. A non-positive window uses DefaultDebounceWindow.
func NewReconciler(recomputer Recomputer, window time.Duration, log *logger.Logger) *Reconciler {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Reconciler{
		recomputer: recomputer,
		window:     window,
		logger:     log.Component("reconciler"),
		pending:    make(map[parent]*pendingUpdate),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// HandleEvent decodes a moderation event and schedules a recomputation when the
// change can move an aggregate
func (w *Reconciler) HandleEvent(data []byte) error {
	var event domain.ModerationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal moderation event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	log := w.logger.WithFields(map[string]any{
		"type":        event.Type,
		"parent_kind": event.ParentKind,
		"parent_id":   event.ParentID.String(),
	})

	if event.ParentID == uuid.Nil || event.ParentKind == "" {
		log.Warn("Moderation event without parent, skipping")
		return nil
	}
	if event.From != domain.StatusApproved && event.To != domain.StatusApproved {
		log.Debug("Event does not touch the approved set")
		return nil
	}
	if _, err := w.kindOf(event.ParentKind); err != nil {
		log.Warn("Unknown parent kind, skipping")
		return nil
	}

	log.Info("Received moderation event")
	w.schedule(parent{kind: event.ParentKind, id: event.ParentID}, event.Timestamp)
	return nil
}

func (w *Reconciler) kindOf(kind string) (domain.ParentKind, error) {
	if kind == domain.ParentKindBlog {
		return "", nil
	}
	return domain.ParseParentKind(kind)
}

// schedule debounces recomputations: several events for the same parent within
// the window result in a single recomputation
func (w *Reconciler) schedule(p parent, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Reconciler shutting down, ignoring new event")
		return
	default:
	}

	if existing, found := w.pending[p]; found {
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"parent":      p.String(),
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		// A timer that already fired owns its wait group slot and will release it itself
		if !existing.timer.Stop() {
			w.wg.Add(1)
		}
		w.logger.WithFields(map[string]any{
			"parent": p.String(),
		}).Debug("Debouncing: resetting timer")
	} else {
		w.wg.Add(1)
	}

	update := &pendingUpdate{parent: p, timestamp: timestamp}
	update.timer = time.AfterFunc(w.window, func() {
		w.process(update)
	})
	w.pending[p] = update
}

// process runs the recomputation of a debounced parent
func (w *Reconciler) process(update *pendingUpdate) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pending[update.parent] == update {
		delete(w.pending, update.parent)
	}
	w.mu.Unlock()

	if err := w.recomputeWithRetry(w.ctx, update.parent); err != nil {
		w.logger.WithFields(map[string]any{
			"parent":      update.parent.String(),
			"max_retries": maxRetries,
		}).Error("Aggregate recomputation failed after all retries", err)
	}
}

// recomputeWithRetry calls the recomputer with exponential backoff
func (w *Reconciler) recomputeWithRetry(ctx context.Context, p parent) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"parent":     p.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying aggregate recomputation")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}

			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := w.recompute(attemptCtx, p)
		cancel()

		if err == nil {
			w.logger.WithFields(map[string]any{
				"parent": p.String(),
			}).Debug("Aggregate reconciled")
			return nil
		}
		lastErr = err
	}

	return lastErr
}

func (w *Reconciler) recompute(ctx context.Context, p parent) error {
	if p.kind == domain.ParentKindBlog {
		return w.recomputer.RecomputeBlogAggregate(ctx, p.id)
	}
	kind, err := domain.ParseParentKind(p.kind)
	if err != nil {
		return err
	}
	return w.recomputer.RecomputeListingAggregate(ctx, domain.ParentRef{Kind: kind, ID: p.id})
}

// Shutdown cancels pending timers and waits for in-flight recomputations
func (w *Reconciler) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down reconciler...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for _, update := range w.pending {
		if update.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
	}
	w.pending = make(map[parent]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": cancelled,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight recomputations completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of debounced parents waiting for their timer
func (w *Reconciler) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
