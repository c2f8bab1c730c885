package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
	"bloop/internal/observability/tracing"
)

// Observer receives the report of every pass. Metrics implement it.
type Observer interface {
	ObserveCycle(report Report)
}

// Config tunes a Service. Zero values select the defaults.
type Config struct {
	// Topics is the rotation. Default: entity.DefaultTopics.
	Topics []entity.Topic

	// Location decides the calendar day used for topic selection. Default: time.Local.
	Location *time.Location

	// Timeout bounds a whole pass. Zero means no limit.
	Timeout time.Duration

	// Now is the clock. Default: time.Now.
	Now func() time.Time

	// Observer is notified after each pass. Optional.
	Observer Observer
}

// Service runs content cycles.
type Service struct {
	generator Generator
	publisher Publisher
	announcer Announcer

	topics   []entity.Topic
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
	observer Observer
}

// NewService creates a cycle Service over the three collaborators.
func NewService(gen Generator, pub Publisher, ann Announcer, cfg Config) *Service {
	s := &Service{
		generator: gen,
		publisher: pub,
		announcer: ann,
		topics:    cfg.Topics,
		location:  cfg.Location,
		timeout:   cfg.Timeout,
		now:       cfg.Now,
		observer:  cfg.Observer,
	}
	if len(s.topics) == 0 {
		s.topics = entity.DefaultTopics
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Run executes one pass and reports whether it succeeded.
// It matches the scheduler's job signature; a failed pass is not an error.
func (s *Service) Run(ctx context.Context) error {
	s.RunOnce(ctx)
	return nil
}

// RunOnce executes SELECT_TOPIC, GENERATE, PUBLISH, ANNOUNCE and DONE once.
// It never panics.
func (s *Service) RunOnce(ctx context.Context) (report Report) {
	start := time.Now()
	report = Report{CycleID: uuid.NewString(), Reached: StageSelectTopic}

	ctx = logging.WithCycleID(ctx, report.CycleID)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := tracing.StartSpan(ctx, "cycle", attribute.String("cycle_id", report.CycleID))
	logger := logging.FromContext(ctx).With(slog.String("trace_id", tracing.TraceID(ctx)))
	ctx = logging.WithLogger(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			report.Panicked = true
			report.FailedAt = report.Reached
			err := fmt.Errorf("%v", r)
			tracing.RecordError(span, err)
			logger.ErrorContext(ctx, "Error in content cycle: "+err.Error(),
				slog.String("stage", report.Reached.String()),
				slog.String("stack", string(debug.Stack())))
		}
		report.Duration = time.Since(start)
		span.SetAttributes(
			attribute.String("reached", report.Reached.String()),
			attribute.Bool("succeeded", report.Succeeded()),
		)
		span.End()
		if s.observer != nil {
			s.observer.ObserveCycle(report)
		}
		logger.InfoContext(ctx, "content cycle finished",
			slog.String("topic", report.Topic),
			slog.Bool("succeeded", report.Succeeded()),
			slog.String("failed_at", report.FailedAt.String()),
			slog.Duration("duration", report.Duration))
	}()

	s.runStages(ctx, &report)
	return report
}

func (s *Service) runStages(ctx context.Context, report *Report) {
	logger := logging.FromContext(ctx)

	topic, err := entity.SelectTopic(s.now().In(s.location).Day(), s.topics)
	if err != nil {
		report.fail(StageSelectTopic, err)
		logger.ErrorContext(ctx, "Error in content cycle: "+err.Error())
		return
	}
	report.Topic = topic.String()
	logger.InfoContext(ctx, "Starting content cycle", slog.String("topic", report.Topic))

	report.Reached = StageGenerate
	content, err := stage(ctx, StageGenerate, func(ctx context.Context) entity.Result[string] {
		return GenerateContent(ctx, s.generator, topic)
	})
	if err != nil {
		report.fail(StageGenerate, err)
		return
	}

	report.Reached = StagePublish
	post, err := stage(ctx, StagePublish, func(ctx context.Context) entity.Result[entity.Post] {
		return PublishPost(ctx, s.publisher, entity.PostTitle(topic), content)
	})
	if err != nil {
		report.fail(StagePublish, err)
		return
	}
	report.PostURL = post.URL

	report.Reached = StageAnnounce
	announcement, err := stage(ctx, StageAnnounce, func(ctx context.Context) entity.Result[entity.Announcement] {
		return AnnouncePost(ctx, s.announcer, topic, post.URL)
	})
	if err != nil {
		report.fail(StageAnnounce, err)
		return
	}
	report.TweetID = announcement.PostID
	report.Reached = StageDone
}

// fail records a failed step and ends the pass.
func (r *Report) fail(st Stage, err error) {
	r.FailedAt = st
	r.Reached = StageDone
	if errors.Is(err, ErrPanicked) {
		r.Panicked = true
	}
}

// stage runs step inside a span named after st and returns the failure reason, if any.
func stage[T any](ctx context.Context, st Stage, step func(context.Context) entity.Result[T]) (T, error) {
	ctx, span := tracing.StartSpan(ctx, "cycle."+st.String())
	defer span.End()

	result := step(ctx)
	if !result.OK() {
		if result.Reason == nil {
			result.Reason = fmt.Errorf("%s step failed", st)
		}
		tracing.RecordError(span, result.Reason)
		if errors.Is(result.Reason, ErrPanicked) {
			span.SetAttributes(attribute.Bool("panicked", true))
		}
		return result.Value, result.Reason
	}
	return result.Value, nil
}
