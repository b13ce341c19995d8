package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"server/internal/clock"
	"server/internal/domain"
	"server/internal/webhook"
)

// StatusFunc fetches one status snapshot for the job being polled.
type StatusFunc func(ctx context.Context) (webhook.PollResult, error)

// Result is the terminal outcome of a poll loop.
type Result struct {
	State domain.JobState // succeeded, failed, or timed_out
	URL   string
	Err   *domain.GenerationError // set for failed and timed_out
}

// Poller drives the fixed-cadence status loop for one job.
type Poller struct {
	Clock   clock.Clock
	Timings Timings
	Logger  zerolog.Logger
}

// Run polls until the job reaches a terminal signal or the budget
// (measured from submittedAt, which may predate this process) runs out.
// Transport and parse failures on individual polls are swallowed; only
// ctx cancellation aborts without a terminal result.
func (p *Poller) Run(ctx context.Context, submittedAt time.Time, status StatusFunc) (Result, error) {
	var lastPoll time.Time

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		switch d := p.Timings.Decide(submittedAt, lastPoll, p.Clock.Now()); d.Action {
		case ActionStop:
			return Result{
				State: domain.JobStateTimedOut,
				Err:   &domain.GenerationError{Category: domain.CategoryTimeout},
			}, nil

		case ActionWait:
			if err := p.Clock.Sleep(ctx, d.Wait); err != nil {
				return Result{}, err
			}

		case ActionPoll:
			lastPoll = p.Clock.Now()
			res, err := status(ctx)
			if err != nil {
				// Transient: a single failed poll is not a signal.
				p.Logger.Warn().Err(err).Msg("poll attempt failed, continuing")
				continue
			}
			if terminal, ok := interpret(res); ok {
				return terminal, nil
			}
			if webhook.CompletedState(res.State) {
				// Provider reports completion before attaching the
				// artifact URL; keep polling until it shows up.
				p.Logger.Debug().Str("state", res.State).Msg("completed without result url, continuing")
			}
		}
	}
}

// interpret turns one status snapshot into a terminal result, or
// reports that the loop should continue. A completed/success state
// without a result URL is deliberately non-terminal: the provider may
// report completion before the artifact URL is attached.
func interpret(res webhook.PollResult) (Result, bool) {
	if res.URL != "" {
		return Result{State: domain.JobStateSucceeded, URL: res.URL}, true
	}
	if res.ErrorMsg != "" {
		return Result{
			State: domain.JobStateFailed,
			Err:   &domain.GenerationError{Category: webhook.ClassifyFailure(res.ErrorMsg), Detail: res.ErrorMsg},
		}, true
	}
	if webhook.TerminalFailureState(res.State) {
		return Result{
			State: domain.JobStateFailed,
			Err:   &domain.GenerationError{Category: domain.CategoryOther, Detail: res.State},
		}, true
	}
	return Result{}, false
}
