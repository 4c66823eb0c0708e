package card

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Report summarizes a batch run.
type Report struct {
	// Results holds one entry per input record, in input order.
	Results  []Result
	Rendered int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Cards returns the cards that were written, in input order.
func (r *Report) Cards() []*RenderedCard {
	var cards []*RenderedCard
	for _, res := range r.Results {
		if res.Card != nil {
			cards = append(cards, res.Card)
		}
	}
	return cards
}

// Errors returns the per-record errors, in input order.
func (r *Report) Errors() []error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errs
}

// Run prepares tpl once and processes records on the engine's worker
// pool. See RunLayout.
func (e *Engine) Run(ctx context.Context, tpl *Template, records []PersonRecord) (*Report, error) {
	layout, err := e.Prepare(ctx, tpl)
	if err != nil {
		return nil, err
	}
	return e.RunLayout(ctx, layout, records)
}

// RunLayout processes records concurrently against a prepared layout.
//
// Record failures are reported in the Report and never abort the batch.
// The returned error is non-nil only when ctx is cancelled; records that
// had not started by then are reported as failed with the context's error.
func (e *Engine) RunLayout(ctx context.Context, layout *Layout, records []PersonRecord) (*Report, error) {
	start := time.Now()
	results := make([]Result, len(records))
	started := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = e.process(gctx, layout, rec)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Results: results, Duration: time.Since(start)}
	for i := range results {
		if !started[i] {
			results[i] = Result{Record: records[i], Stage: StageFailed, Err: ctx.Err()}
			if e.observer != nil {
				e.observer.ObserveRecord(results[i])
			}
		}
		switch results[i].Stage {
		case StageSaved:
			report.Rendered++
		case StageSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	e.logger.Info("batch complete",
		"records", len(records),
		"rendered", report.Rendered,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"workers", e.workers,
		"duration", report.Duration)

	return report, ctx.Err()
}
