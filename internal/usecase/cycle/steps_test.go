package cycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloop/internal/domain/entity"
)

type stubGenerator func() (string, error)

func (f stubGenerator) Generate(context.Context, entity.Topic) (string, error) { return f() }

type stubPublisher func() (entity.Post, error)

func (f stubPublisher) CreatePost(context.Context, string, string) (entity.Post, error) { return f() }

type stubAnnouncer func(text string) (string, error)

func (f stubAnnouncer) Post(_ context.Context, text string) (string, error) { return f(text) }

func TestGenerateContent(t *testing.T) {
	ok := GenerateContent(context.Background(), stubGenerator(func() (string, error) { return "body", nil }), "Future of Technology")
	assert.True(t, ok.OK())
	assert.Equal(t, entity.StatusSucceeded, ok.Status)
	assert.Equal(t, "body", ok.Value)

	empty := GenerateContent(context.Background(), stubGenerator(func() (string, error) { return "\n", nil }), "x")
	assert.Equal(t, entity.StatusFailed, empty.Status)
	assert.ErrorIs(t, empty.Reason, entity.ErrEmptyContent)

	boom := errors.New("boom")
	failed := GenerateContent(context.Background(), stubGenerator(func() (string, error) { return "", boom }), "x")
	assert.ErrorIs(t, failed.Reason, boom)

	panicked := GenerateContent(context.Background(), stubGenerator(func() (string, error) { panic("kaput") }), "x")
	assert.ErrorIs(t, panicked.Reason, ErrPanicked)
	assert.Contains(t, panicked.Reason.Error(), "kaput")
}

func TestPublishPost(t *testing.T) {
	ok := PublishPost(context.Background(), stubPublisher(func() (entity.Post, error) {
		return entity.Post{URL: "https://blog.example.com/p/"}, nil
	}), "t", "c")
	require.True(t, ok.OK())
	assert.Equal(t, "https://blog.example.com/p/", ok.Value.URL)

	badURL := PublishPost(context.Background(), stubPublisher(func() (entity.Post, error) {
		return entity.Post{URL: "not a url"}, nil
	}), "t", "c")
	assert.False(t, badURL.OK())
	assert.ErrorIs(t, badURL.Reason, entity.ErrInvalidInput)
}

func TestAnnouncePost(t *testing.T) {
	var sent string
	res := AnnouncePost(context.Background(), stubAnnouncer(func(text string) (string, error) {
		sent = text
		return "99", nil
	}), "Emerging Technologies", "https://x/y")

	require.True(t, res.OK())
	assert.Equal(t, "99", res.Value.PostID)
	assert.Equal(t, sent, res.Value.Text)
	assert.Equal(t, "🤖 Just published my thoughts on Emerging Technologies! Check it out: https://x/y", sent)

	failed := AnnouncePost(context.Background(), stubAnnouncer(func(string) (string, error) {
		return "", errors.New("403")
	}), "t", "https://x/y")
	assert.False(t, failed.OK())
}

func TestReportSucceeded(t *testing.T) {
	assert.True(t, Report{Reached: StageDone}.Succeeded())
	assert.False(t, Report{Reached: StageDone, FailedAt: StageAnnounce}.Succeeded())
	assert.False(t, Report{Reached: StagePublish, Panicked: true, FailedAt: StagePublish}.Succeeded())
	assert.False(t, Report{Reached: StageGenerate}.Succeeded())
}
