package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bloop/internal/domain/entity"
	"bloop/internal/observability/logging"
)

// Generator writes a blog post about a topic.
type Generator interface {
	Generate(ctx context.Context, topic entity.Topic) (string, error)
}

// Publisher creates a published post on the CMS.
type Publisher interface {
	CreatePost(ctx context.Context, title, content string) (entity.Post, error)
}

// Announcer posts a public message and returns its ID.
type Announcer interface {
	Post(ctx context.Context, text string) (string, error)
}

// guard runs fn and turns a panic into an ErrPanicked error.
func guard[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, err = zero, fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn()
}

// GenerateContent asks gen for a post about topic.
func GenerateContent(ctx context.Context, gen Generator, topic entity.Topic) entity.Result[string] {
	content, err := guard(func() (string, error) { return gen.Generate(ctx, topic) })
	if err == nil && strings.TrimSpace(content) == "" {
		err = entity.ErrEmptyContent
	}
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Error generating content: "+err.Error(),
			slog.String("topic", topic.String()))
		return entity.Failed[string](err)
	}
	return entity.Succeeded(content)
}

// PublishPost creates a published post with title and content.
func PublishPost(ctx context.Context, pub Publisher, title, content string) entity.Result[entity.Post] {
	post, err := guard(func() (entity.Post, error) { return pub.CreatePost(ctx, title, content) })
	if err == nil {
		err = entity.ValidatePostURL(post.URL)
	}
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Error publishing to Ghost: "+err.Error(),
			slog.String("title", title))
		return entity.Failed[entity.Post](err)
	}
	logging.FromContext(ctx).InfoContext(ctx, "Published blog post: "+title,
		slog.String("post_url", post.URL))
	return entity.Succeeded(post)
}

// AnnouncePost posts the announcement for topic and postURL.
func AnnouncePost(ctx context.Context, ann Announcer, topic entity.Topic, postURL string) entity.Result[entity.Announcement] {
	text := entity.AnnouncementText(topic, postURL)
	id, err := guard(func() (string, error) { return ann.Post(ctx, text) })
	if err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Error posting tweet: "+err.Error())
		return entity.Failed[entity.Announcement](err)
	}
	logging.FromContext(ctx).InfoContext(ctx, "Posted tweet: "+text,
		slog.String("tweet_id", id))
	return entity.Succeeded(entity.Announcement{Text: text, PostID: id})
}
