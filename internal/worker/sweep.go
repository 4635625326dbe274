package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

// ListingIDs lists every listing of a kind
type ListingIDs interface {
	ListIDs(ctx context.Context, kind domain.ParentKind) ([]uuid.UUID, error)
}

// BlogIDs lists every blog
type BlogIDs interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Sweep recomputes the aggregate of every listing and blog. It keeps going past
// individual failures and returns how many parents could not be reconciled.
func (w *Reconciler) Sweep(ctx context.Context, listings ListingIDs, blogs BlogIDs) (int, error) {
	var parents []parent

	for _, kind := range []domain.ParentKind{domain.ParentHouse, domain.ParentLand} {
		ids, err := listings.ListIDs(ctx, kind)
		if err != nil {
			return 0, fmt.Errorf("list %s ids: %w", kind, err)
		}
		for _, id := range ids {
			parents = append(parents, parent{kind: string(kind), id: id})
		}
	}

	blogIDs, err := blogs.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list blog ids: %w", err)
	}
	for _, id := range blogIDs {
		parents = append(parents, parent{kind: domain.ParentKindBlog, id: id})
	}

	failed := 0
	for _, p := range parents {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		if err := w.recomputeWithRetry(ctx, p); err != nil {
			failed++
			w.logger.WithFields(map[string]any{
				"parent": p.String(),
			}).Error("Sweep failed to reconcile parent", err)
		}
	}

	w.logger.WithFields(map[string]any{
		"parents": len(parents),
		"failed":  failed,
	}).Info("Aggregate sweep finished")

	return failed, nil
}

// StartSweeps runs Sweep on the given cron schedule until the returned cron is stopped.
// Runs never overlap.
func (w *Reconciler) StartSweeps(spec string, listings ListingIDs, blogs BlogIDs) (*cron.Cron, error) {
	cronLog := cron.PrintfLogger(w.logger)
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	_, err := c.AddFunc(spec, func() {
		if _, err := w.Sweep(w.ctx, listings, blogs); err != nil {
			w.logger.Error("Aggregate sweep aborted", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	c.Start()
	w.logger.Infof("Aggregate sweep scheduled: %s", spec)
	return c, nil
}
