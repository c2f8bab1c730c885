package cycle_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
	"bloop/internal/usecase/cycle"
)

/* ───────── fakes ───────── */

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []entity.Topic
	content string
	err     error
	panics  bool
}

func (f *fakeGenerator) Generate(_ context.Context, topic entity.Topic) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, topic)
	f.mu.Unlock()
	if f.panics {
		panic("generator exploded")
	}
	return f.content, f.err
}

type publishCall struct {
	title   string
	content string
}

type fakePublisher struct {
	mu     sync.Mutex
	calls  []publishCall
	url    string
	err    error
	panics bool
}

func (f *fakePublisher) CreatePost(_ context.Context, title, content string) (entity.Post, error) {
	f.mu.Lock()
	f.calls = append(f.calls, publishCall{title: title, content: content})
	f.mu.Unlock()
	if f.panics {
		panic("publisher exploded")
	}
	if f.err != nil {
		return entity.Post{}, f.err
	}
	return entity.Post{ID: "p1", Title: title, Content: content, Status: entity.PostStatusPublished, URL: f.url}, nil
}

type fakeAnnouncer struct {
	mu     sync.Mutex
	calls  []string
	id     string
	err    error
	panics bool
}

func (f *fakeAnnouncer) Post(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.panics {
		panic("announcer exploded")
	}
	return f.id, f.err
}

type recordingObserver struct {
	reports []cycle.Report
}

func (r *recordingObserver) ObserveCycle(report cycle.Report) {
	r.reports = append(r.reports, report)
}

func day(d int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC) }
}

func newFixture(d int) (*fakeGenerator, *fakePublisher, *fakeAnnouncer, *recordingObserver, *cycle.Service) {
	gen := &fakeGenerator{content: "An engaging post."}
	pub := &fakePublisher{url: "https://x/y"}
	ann := &fakeAnnouncer{id: "tweet-1"}
	obs := &recordingObserver{}
	svc := cycle.NewService(gen, pub, ann, cycle.Config{
		Location: time.UTC,
		Now:      day(d),
		Observer: obs,
	})
	return gen, pub, ann, obs, svc
}

/* ───────── tests ───────── */

func TestRunOnce_SuccessfulCycle(t *testing.T) {
	gen, pub, ann, obs, svc := newFixture(7)

	report := svc.RunOnce(context.Background())

	assert.True(t, report.Succeeded())
	assert.Equal(t, cycle.StageDone, report.Reached)
	assert.Empty(t, report.FailedAt)
	assert.Equal(t, "Digital Innovation", report.Topic)
	assert.Equal(t, "https://x/y", report.PostURL)
	assert.Equal(t, "tweet-1", report.TweetID)
	assert.NotEmpty(t, report.CycleID)

	require.Equal(t, []entity.Topic{"Digital Innovation"}, gen.calls)

	require.Len(t, pub.calls, 1, "exactly one create-post call")
	assert.Equal(t, "Bloop's Analysis: Digital Innovation", pub.calls[0].title)
	assert.Equal(t, "An engaging post.", pub.calls[0].content)

	require.Len(t, ann.calls, 1, "exactly one social post")
	assert.Contains(t, ann.calls[0], "Digital Innovation")
	assert.Contains(t, ann.calls[0], "https://x/y")
	assert.Equal(t, "🤖 Just published my thoughts on Digital Innovation! Check it out: https://x/y", ann.calls[0])

	require.Len(t, obs.reports, 1)
	assert.Equal(t, report.CycleID, obs.reports[0].CycleID)
}

func TestRunOnce_TopicFollowsCalendarDay(t *testing.T) {
	for d := 1; d <= 31; d++ {
		gen := &fakeGenerator{content: "x"}
		svc := cycle.NewService(gen, &fakePublisher{url: "https://x/y"}, &fakeAnnouncer{id: "1"}, cycle.Config{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2026, 1, d, 10, 0, 0, 0, time.UTC) },
		})

		report := svc.RunOnce(context.Background())

		assert.Equal(t, entity.DefaultTopics[d%5].String(), report.Topic, "day %d", d)
	}
}

func TestRunOnce_DayUsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	gen := &fakeGenerator{content: "x"}
	// 2026-03-06 20:00 UTC is 2026-03-07 05:00 in JST.
	svc := cycle.NewService(gen, &fakePublisher{url: "https://x/y"}, &fakeAnnouncer{id: "1"}, cycle.Config{
		Location: tokyo,
		Now:      func() time.Time { return time.Date(2026, 3, 6, 20, 0, 0, 0, time.UTC) },
	})

	report := svc.RunOnce(context.Background())

	assert.Equal(t, "Digital Innovation", report.Topic)
}

func TestRunOnce_GenerationFailureSkipsPublishAndAnnounce(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"api error", "", errors.New("claude api error: 529 overloaded")},
		{"empty content", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, pub, ann, _, svc := newFixture(7)
			gen.content, gen.err = tt.content, tt.err

			report := svc.RunOnce(context.Background())

			assert.False(t, report.Succeeded())
			assert.Equal(t, cycle.StageGenerate, report.FailedAt)
			assert.Equal(t, cycle.StageDone, report.Reached)
			assert.Empty(t, pub.calls, "publish must not be invoked")
			assert.Empty(t, ann.calls, "announce must not be invoked")
		})
	}
}

func TestRunOnce_PublishFailureSkipsAnnounce(t *testing.T) {
	gen, pub, ann, _, svc := newFixture(7)
	pub.err = errors.New("ghost admin api returned status 500")

	report := svc.RunOnce(context.Background())

	assert.Len(t, gen.calls, 1)
	assert.Len(t, pub.calls, 1)
	assert.Empty(t, ann.calls, "announce must not be invoked")
	assert.Equal(t, cycle.StagePublish, report.FailedAt)
	assert.Empty(t, report.PostURL)
}

func TestRunOnce_PublishWithoutURLSkipsAnnounce(t *testing.T) {
	_, pub, ann, _, svc := newFixture(7)
	pub.url = ""

	report := svc.RunOnce(context.Background())

	assert.Equal(t, cycle.StagePublish, report.FailedAt)
	assert.Empty(t, ann.calls)
}

func TestRunOnce_AnnounceFailureIsRecorded(t *testing.T) {
	_, pub, ann, _, svc := newFixture(7)
	ann.err = errors.New("x api returned status 403")

	report := svc.RunOnce(context.Background())

	assert.Len(t, pub.calls, 1)
	assert.Len(t, ann.calls, 1)
	assert.Equal(t, cycle.StageAnnounce, report.FailedAt)
	assert.Equal(t, "https://x/y", report.PostURL)
	assert.Empty(t, report.TweetID)
	assert.False(t, report.Succeeded())
}

func TestRunOnce_RecoversCollaboratorPanics(t *testing.T) {
	tests := []struct {
		name      string
		arrange   func(*fakeGenerator, *fakePublisher, *fakeAnnouncer)
		failedAt  cycle.Stage
		published int
		announced int
	}{
		{"generator", func(g *fakeGenerator, _ *fakePublisher, _ *fakeAnnouncer) { g.panics = true }, cycle.StageGenerate, 0, 0},
		{"publisher", func(_ *fakeGenerator, p *fakePublisher, _ *fakeAnnouncer) { p.panics = true }, cycle.StagePublish, 1, 0},
		{"announcer", func(_ *fakeGenerator, _ *fakePublisher, a *fakeAnnouncer) { a.panics = true }, cycle.StageAnnounce, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, pub, ann, obs, svc := newFixture(7)
			tt.arrange(gen, pub, ann)

			var report cycle.Report
			require.NotPanics(t, func() { report = svc.RunOnce(context.Background()) })

			assert.True(t, report.Panicked)
			assert.Equal(t, tt.failedAt, report.FailedAt)
			assert.Len(t, pub.calls, tt.published)
			assert.Len(t, ann.calls, tt.announced)
			require.Len(t, obs.reports, 1)

			// The next pass is unaffected.
			gen.panics, pub.panics, ann.panics = false, false, false
			next := svc.RunOnce(context.Background())
			assert.True(t, next.Succeeded())
			assert.NotEqual(t, report.CycleID, next.CycleID)
		})
	}
}

func TestRunOnce_RecoversNilCollaborator(t *testing.T) {
	svc := cycle.NewService(nil, nil, nil, cycle.Config{Now: day(7), Location: time.UTC})

	var report cycle.Report
	require.NotPanics(t, func() { report = svc.RunOnce(context.Background()) })
	assert.True(t, report.Panicked)
	assert.Equal(t, cycle.StageGenerate, report.FailedAt)
}

func TestRunOnce_EmptyTopicListUsesDefaults(t *testing.T) {
	gen := &fakeGenerator{content: "x"}
	svc := cycle.NewService(gen, &fakePublisher{}, &fakeAnnouncer{}, cycle.Config{
		Topics: []entity.Topic{},
		Now:    day(7),
	})
	report := svc.RunOnce(context.Background())
	assert.Equal(t, "Digital Innovation", report.Topic)
}

func TestRunOnce_LogsCarryCycleID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := logging.WithLogger(context.Background(), logger)

	_, _, ann, _, svc := newFixture(7)
	ann.err = errors.New("x api returned status 403")

	report := svc.RunOnce(ctx)

	out := buf.String()
	assert.Contains(t, out, "Published blog post: Bloop's Analysis: Digital Innovation")
	assert.Contains(t, out, "Error posting tweet: x api returned status 403")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Contains(t, line, "cycle_id="+report.CycleID)
	}
}

func TestRunOnce_TimeoutBoundsPass(t *testing.T) {
	var deadlineSeen bool
	gen := generatorFunc(func(ctx context.Context, _ entity.Topic) (string, error) {
		_, deadlineSeen = ctx.Deadline()
		return "", ctx.Err()
	})
	svc := cycle.NewService(gen, &fakePublisher{}, &fakeAnnouncer{}, cycle.Config{
		Now:     day(7),
		Timeout: time.Minute,
	})

	svc.RunOnce(context.Background())
	assert.True(t, deadlineSeen)
}

func TestRunOnce_EmitsStageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(sdktrace.NewTracerProvider())

	_, _, _, _, svc := newFixture(7)
	svc.RunOnce(context.Background())

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	assert.ElementsMatch(t, []string{"cycle.generate", "cycle.publish", "cycle.announce", "cycle"}, names)
}

func TestRun_NeverReturnsError(t *testing.T) {
	gen, _, _, _, svc := newFixture(7)
	gen.err = errors.New("down")

	assert.NoError(t, svc.Run(context.Background()))
}

type generatorFunc func(ctx context.Context, topic entity.Topic) (string, error)

func (f generatorFunc) Generate(ctx context.Context, topic entity.Topic) (string, error) {
	return f(ctx, topic)
}
