package generate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/clock"
	"server/internal/credits"
	"server/internal/domain"
	"server/internal/events"
	"server/internal/gate"
	"server/internal/history"
	"server/internal/jobstore"
	"server/internal/poller"
	"server/internal/webhook"
)

// Submitter is the webhook surface the service drives.
type Submitter interface {
	SubmitImage(ctx context.Context, req webhook.ImageRequest) (webhook.Outcome, error)
	SubmitVideo(ctx context.Context, req webhook.VideoRequest) (webhook.Outcome, error)
	PollStatus(ctx context.Context, jobID string) (webhook.PollResult, error)
}

// Options wires a Service.
type Options struct {
	Ledger  *credits.Ledger
	Gate    *gate.Gate
	Jobs    *jobstore.Store
	History history.Store
	Hub     *events.Hub
	Client  Submitter
	Clock   clock.Clock
	Logger  zerolog.Logger
	// Timings configures grace/interval/budget per kind. Image
	// generation is synchronous upstream today, but if the provider
	// turns async the image entry takes effect without code changes.
	Timings map[domain.Kind]poller.Timings
	// Locale for messages on the observable status; clients localize
	// their own direct errors.
	Locale string
	// BaseContext outlives individual requests: polling continues after
	// the submitting request ends and only stops on shutdown.
	BaseContext context.Context
}

// Service owns the generation job lifecycle: gate, ledger deduction,
// webhook submission, durable job state, polling, and reconciliation.
type Service struct {
	ledger  *credits.Ledger
	gate    *gate.Gate
	jobs    *jobstore.Store
	history history.Store
	hub     *events.Hub
	client  Submitter
	clk     clock.Clock
	logger  zerolog.Logger
	timings map[domain.Kind]poller.Timings
	locale  string
	baseCtx context.Context

	mu     sync.Mutex
	status domain.Status

	wg sync.WaitGroup
}

func NewService(opts Options) *Service {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	baseCtx := opts.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	locale := opts.Locale
	if locale == "" {
		locale = "fr"
	}
	return &Service{
		ledger:  opts.Ledger,
		gate:    opts.Gate,
		jobs:    opts.Jobs,
		history: opts.History,
		hub:     opts.Hub,
		client:  opts.Client,
		clk:     clk,
		logger:  opts.Logger,
		timings: opts.Timings,
		locale:  locale,
		baseCtx: baseCtx,
		status:  domain.Status{Phase: domain.PhaseIdle},
	}
}

// ImageParams is one image generation request.
type ImageParams struct {
	Model           string
	Prompt          string
	ReferenceImages [][]byte
}

// VideoParams is one video generation request. Format is one of
// landscape, portrait, square.
type VideoParams struct {
	Model         string
	Prompt        string
	Format        string
	StartingImage []byte
}

// Result is the caller-visible outcome of a submission: either an
// immediate result URL or the id of a job now polling in background.
type Result struct {
	URL   string
	JobID string
}

const (
	defaultImageModel = "Nano Banana"
	defaultVideoModel = "Sora 2"
)

func aspectRatioFor(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "portrait":
		return "9:16"
	case "square":
		return "1:1"
	default:
		return "16:9"
	}
}

// GenerateImage runs one image generation. The provider answers
// synchronously today, so the usual outcome is an immediate URL.
func (s *Service) GenerateImage(ctx context.Context, params ImageParams) (Result, error) {
	model := params.Model
	if model == "" {
		model = defaultImageModel
	}
	return s.run(ctx, domain.KindImage, model, params.Prompt, func(ctx context.Context) (webhook.Outcome, error) {
		return s.client.SubmitImage(ctx, webhook.ImageRequest{
			Model:           model,
			Prompt:          params.Prompt,
			ReferenceImages: params.ReferenceImages,
		})
	})
}

// GenerateVideo runs one video generation. The provider usually answers
// with an async job handle; polling then continues in background,
// detached from ctx.
func (s *Service) GenerateVideo(ctx context.Context, params VideoParams) (Result, error) {
	model := params.Model
	if model == "" {
		model = defaultVideoModel
	}
	return s.run(ctx, domain.KindVideo, model, params.Prompt, func(ctx context.Context) (webhook.Outcome, error) {
		return s.client.SubmitVideo(ctx, webhook.VideoRequest{
			Model:         model,
			Prompt:        params.Prompt,
			AspectRatio:   aspectRatioFor(params.Format),
			StartingImage: params.StartingImage,
		})
	})
}

// run is the shared submission path. The gate is acquired before the
// deduction and released only after the ledger is finalized, so "gate
// busy" always means "an outstanding deduction exists".
func (s *Service) run(ctx context.Context, kind domain.Kind, model, prompt string, submit func(context.Context) (webhook.Outcome, error)) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, domain.ErrEmptyPrompt
	}

	if !s.gate.TryAcquire(kind) {
		return Result{}, domain.ErrGenerationBusy
	}

	cost := credits.CostFor(kind, model)
	if err := s.ledger.Deduct(ctx, cost); err != nil {
		s.gate.Release()
		return Result{}, err
	}

	s.setStatus(domain.Status{Phase: domain.PhaseGenerating, Kind: kind})

	out, err := submit(ctx)
	if err != nil {
		s.refund(cost)
		s.setStatus(domain.Status{Phase: domain.PhaseFailed, Kind: kind, Message: webhook.UserMessage(s.locale, err)})
		s.gate.Release()
		return Result{}, err
	}

	if out.Immediate() {
		s.recordSuccess(kind, prompt, model, out.URL)
		s.gate.Release()
		return Result{URL: out.URL}, nil
	}

	// Async handle: persist the job before any sleep so a restart
	// during the grace period or the poll loop can resume.
	rec := domain.JobRecord{
		Kind:        kind,
		JobID:       out.JobID,
		Model:       model,
		Prompt:      prompt,
		Cost:        cost,
		State:       domain.JobStateSubmitted,
		SubmittedAt: s.clk.Now(),
	}
	if err := s.jobs.Save(ctx, rec); err != nil {
		s.refund(cost)
		s.setStatus(domain.Status{Phase: domain.PhaseFailed, Kind: kind, Message: webhook.UserMessage(s.locale, err)})
		s.gate.Release()
		return Result{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.lifecycle(rec)
	}()
	return Result{JobID: rec.JobID}, nil
}

// lifecycle polls one persisted job to a terminal state. It owns the
// gate token from here on and releases it exactly once.
func (s *Service) lifecycle(rec domain.JobRecord) {
	defer s.gate.Release()

	timings, ok := s.timings[rec.Kind]
	if !ok {
		timings = poller.Timings{Grace: 3 * time.Minute, Interval: 30 * time.Second, Budget: 8 * time.Minute}
	}
	p := &poller.Poller{Clock: s.clk, Timings: timings, Logger: s.logger}

	polling := false
	status := func(ctx context.Context) (webhook.PollResult, error) {
		if !polling {
			polling = true
			rec.State = domain.JobStatePolling
			if err := s.jobs.Save(ctx, rec); err != nil {
				s.logger.Warn().Err(err).Str("job_id", rec.JobID).Msg("persist polling state failed")
			}
		}
		return s.client.PollStatus(ctx, rec.JobID)
	}

	result, err := p.Run(s.baseCtx, rec.SubmittedAt, status)
	if err != nil {
		// Shutdown: the record stays persisted so the next process
		// resumes with the remaining budget.
		s.logger.Info().Str("job_id", rec.JobID).Msg("poll loop interrupted, job left for resume")
		return
	}
	s.finalize(rec, result)
}

// finalize reconciles a terminal poll outcome against the ledger, the
// job store, the history, and the observable status. The cleared-record
// check makes reconciliation idempotent: a duplicated terminal signal
// can never refund twice.
func (s *Service) finalize(rec domain.JobRecord, result poller.Result) {
	ctx := context.WithoutCancel(s.baseCtx)

	existed, err := s.jobs.Clear(ctx, rec.Kind)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", rec.JobID).Msg("clear job record failed")
	}
	if !existed {
		s.logger.Warn().Str("job_id", rec.JobID).Msg("job already reconciled, skipping")
		return
	}

	switch result.State {
	case domain.JobStateSucceeded:
		s.recordSuccess(rec.Kind, rec.Prompt, rec.Model, result.URL)
	default:
		// Failed or timed out: the deduction is returned in full.
		s.refund(rec.Cost)
		s.setStatus(domain.Status{
			Phase:   domain.PhaseFailed,
			Kind:    rec.Kind,
			Message: webhook.UserMessage(s.locale, result.Err),
		})
		s.logger.Info().
			Str("job_id", rec.JobID).
			Str("state", string(result.State)).
			Int("refunded", rec.Cost).
			Msg("generation reconciled as failure")
	}
}

func (s *Service) recordSuccess(kind domain.Kind, prompt, model, url string) {
	ctx := context.WithoutCancel(s.baseCtx)

	if err := s.jobs.SetLastResult(ctx, kind, url); err != nil {
		s.logger.Warn().Err(err).Msg("retain last result failed")
	}
	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Prompt:    prompt,
		ResultURL: url,
		Model:     model,
		CreatedAt: s.clk.Now(),
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error().Err(err).Msg("history append failed")
	}
	if s.hub != nil {
		s.hub.PublishJSON(events.TopicHistory, entry)
	}
	s.setStatus(domain.Status{Phase: domain.PhaseSucceeded, Kind: kind, URL: url})
}

func (s *Service) refund(cost int) {
	ctx := context.WithoutCancel(s.baseCtx)
	if err := s.ledger.Add(ctx, cost); err != nil {
		// The balance write failed; the deduction is still persisted.
		// This is the one state needing operator attention, so it is
		// loud.
		s.logger.Error().Err(err).Int("amount", cost).Msg("credit refund failed")
	}
}

// Status returns the current observable generation status.
func (s *Service) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) setStatus(status domain.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	if s.hub != nil {
		s.hub.PublishJSON(events.TopicStatus, status)
	}
}

// Resume restarts polling for any job persisted by a previous process.
// The budget keeps running from the original submission time, so a job
// submitted five minutes before the restart has three minutes left, not
// eight.
func (s *Service) Resume(ctx context.Context) error {
	for _, kind := range []domain.Kind{domain.KindImage, domain.KindVideo} {
		rec, ok, err := s.jobs.Load(ctx, kind)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if rec.State.Terminal() {
			// Stale marker from an interrupted reconciliation.
			if _, err := s.jobs.Clear(ctx, kind); err != nil {
				return err
			}
			continue
		}
		if !s.gate.TryAcquire(kind) {
			s.logger.Warn().Str("kind", string(kind)).Msg("gate busy during resume, skipping")
			continue
		}
		s.setStatus(domain.Status{Phase: domain.PhaseGenerating, Kind: kind})
		s.logger.Info().
			Str("kind", string(kind)).
			Str("job_id", rec.JobID).
			Time("submitted_at", rec.SubmittedAt).
			Msg("resuming persisted generation job")

		resumed := rec
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.lifecycle(resumed)
		}()
	}
	return nil
}

// Wait blocks until all background lifecycles finish. Tests and
// graceful shutdown use it.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LastResult returns the retained result URL for kind.
func (s *Service) LastResult(ctx context.Context, kind domain.Kind) (string, error) {
	return s.jobs.LastResult(ctx, kind)
}
