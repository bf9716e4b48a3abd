package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/dogstore/domain"
	"github.com/input-output-hk/dogstore/errors"
	"github.com/input-output-hk/dogstore/idgen"
	"github.com/input-output-hk/dogstore/store"
)

// Orchestrator runs the record creation pipeline. It holds configuration
// only; every execution keeps its state on the stack, so a single
// Orchestrator serves concurrent requests.
type Orchestrator struct {
	ids     idgen.Generator
	records store.RecordStore
	logger  *slog.Logger
	tracer  trace.Tracer
	policy  RetryPolicy
	now     func() time.Time
}

// New creates an Orchestrator over an identifier generator and a record store.
func New(ids idgen.Generator, records store.RecordStore, opts ...Option) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return &Orchestrator{
		ids:     ids,
		records: records,
		logger:  o.logger,
		tracer:  o.tracer,
		policy:  o.policy,
		now:     o.now,
	}
}

// execution is the per-request state of the state machine.
type execution struct {
	id     string
	state  domain.State
	logger *slog.Logger
	now    func() time.Time
}

// moveTo performs a transition, emitting one log entry. Illegal transitions
// are programming errors.
func (e *execution) moveTo(ctx context.Context, to domain.State) {
	if !CanTransition(e.state, to) {
		panic(fmt.Sprintf("workflow: illegal transition %s -> %s", e.state, to))
	}

	event := domain.TransitionEvent{
		ExecutionID: e.id,
		Timestamp:   e.now(),
		From:        e.state,
		To:          to,
	}
	if to == domain.StateFailed {
		event.Stage = stageOf(e.state)
	}

	e.logger.InfoContext(ctx, "workflow transition",
		"execution_id", event.ExecutionID,
		"from", event.From.String(),
		"to", event.To.String(),
		"stage", event.Stage.String())

	e.state = to
}

// Run executes the pipeline for input and returns its terminal outcome.
// Run never returns a raw lower-level error: every failure is reported
// through Outcome.Stage and Outcome.Cause.
func (o *Orchestrator) Run(ctx context.Context, input domain.DogInput) Outcome {
	start := o.now()
	exec := &execution{
		id:     uuid.NewString(),
		state:  domain.StateStart,
		logger: o.logger,
		now:    o.now,
	}

	ctx, span := o.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(attribute.String("workflow.execution_id", exec.id)))
	defer span.End()

	out := o.run(ctx, exec, input)
	out.ExecutionID = exec.id
	out.State = exec.state
	out.Duration = o.now().Sub(start)

	if out.Succeeded() {
		span.SetAttributes(attribute.String("dog.id", out.Record.ID))
		o.logger.InfoContext(ctx, "workflow succeeded",
			"execution_id", out.ExecutionID,
			"id", out.Record.ID,
			"attempts", out.Attempts,
			"request_id", out.Receipt.RequestID,
			"duration", out.Duration)
		return out
	}

	span.RecordError(out.Cause)
	span.SetStatus(codes.Error, out.Stage.String())

	attrs := []any{
		"execution_id", out.ExecutionID,
		"stage", out.Stage.String(),
		"code", errors.CodeOf(out.Cause).String(),
		"attempts", out.Attempts,
		"duration", out.Duration,
		"error", out.Cause,
	}
	switch {
	case out.Stage == domain.StageValidation:
		o.logger.WarnContext(ctx, "workflow failed", attrs...)
	case stderrors.Is(out.Cause, store.ErrRejected):
		o.logger.ErrorContext(ctx, "workflow failed", append(attrs, "defect", true)...)
	default:
		o.logger.ErrorContext(ctx, "workflow failed", attrs...)
	}

	return out
}

func (o *Orchestrator) run(ctx context.Context, exec *execution, input domain.DogInput) Outcome {
	// START: entry guard
	if err := guard(input); err != nil {
		return fail(ctx, exec, err)
	}
	exec.moveTo(ctx, domain.StateGeneratingID)

	// GENERATING_ID
	id, err := o.generate(ctx)
	if err != nil {
		return fail(ctx, exec, err)
	}
	record := input.WithID(id)
	exec.moveTo(ctx, domain.StatePersisting)

	// PERSISTING
	receipt, attempts, err := o.persist(ctx, exec, record)
	if err != nil {
		out := fail(ctx, exec, err)
		out.Attempts = attempts
		return out
	}
	receipt.Attempts = attempts
	exec.moveTo(ctx, domain.StateDone)

	return Outcome{
		Record:   record,
		Receipt:  receipt,
		Attempts: attempts,
	}
}

// fail moves exec to FAILED and builds the failure outcome for the stage of
// the state being left.
func fail(ctx context.Context, exec *execution, cause error) Outcome {
	stage := stageOf(exec.state)
	exec.moveTo(ctx, domain.StateFailed)
	return Outcome{Stage: stage, Cause: cause}
}

// guard rejects payloads that did not pass validation upstream.
func guard(input domain.DogInput) error {
	var missing []string
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Breed) == "" {
		missing = append(missing, "breed")
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.WrapWithContext(
		fmt.Errorf("blank fields %v", missing),
		errors.CodeInvalidInput,
		"payload failed entry guard",
		map[string]any{"fields": missing},
	)
}

func (o *Orchestrator) generate(ctx context.Context) (string, error) {
	_, span := o.tracer.Start(ctx, "workflow.generate_id")
	defer span.End()

	id, err := o.ids.Generate()
	if err == nil && id == "" {
		err = stderrors.New("generator returned an empty identifier")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "id generation failed")
		if errors.CodeOf(err) == errors.CodeIDGeneration {
			return "", err
		}
		return "", errors.Wrap(err, errors.CodeIDGeneration, "failed to generate identifier")
	}
	return id, nil
}

// persist writes record, retrying Throttled and Unavailable failures under
// the retry policy. It returns the number of attempts made.
func (o *Orchestrator) persist(ctx context.Context, exec *execution, record domain.Dog) (domain.WriteReceipt, int, error) {
	ctx, span := o.tracer.Start(ctx, "workflow.persist",
		trace.WithAttributes(attribute.String("dog.id", record.ID)))
	defer span.End()

	var (
		receipt  domain.WriteReceipt
		attempts int
		lastErr  error
	)

	operation := func() error {
		attempts++
		r, err := o.records.Put(ctx, record)
		if err == nil {
			receipt = r
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || !store.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		o.logger.WarnContext(ctx, "retrying put",
			"execution_id", exec.id,
			"id", record.ID,
			"attempt", attempts,
			"wait", wait,
			"error", err)
	}

	err := backoff.RetryNotify(operation, o.policy.backOff(ctx), notify)
	span.SetAttributes(attribute.Int("workflow.attempts", attempts))
	if err == nil {
		return receipt, attempts, nil
	}

	// Cancellation while waiting surfaces the context error alone; keep the
	// last store failure alongside it.
	if lastErr != nil && !stderrors.Is(err, lastErr) {
		err = stderrors.Join(lastErr, err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "persistence failed")

	return domain.WriteReceipt{}, attempts, errors.WrapWithContext(err, persistCode(err), "failed to persist record",
		map[string]any{"id": record.ID, "attempts": attempts})
}

// persistCode picks the platform code for a persistence failure.
func persistCode(err error) errors.ErrorCode {
	if code := store.CodeFor(err); code != errors.CodeUnknown {
		return code
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.CodeTimeout
	}
	return errors.CodeInternal
}
