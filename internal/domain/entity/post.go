package entity

import (
	"fmt"
	"time"
)

// PostStatusPublished is the only status the bot ever requests: there is no draft step.
const PostStatusPublished = "published"

const (
	titleTemplate        = "Bloop's Analysis: %s"
	announcementTemplate = "🤖 Just published my thoughts on %s! Check it out: %s"
)

// Post is the blog entry created by the CMS for a cycle.
// Only URL is needed downstream; the other fields are kept for logging.
type Post struct {
	ID          string
	Title       string
	Content     string
	Status      string
	URL         string
	PublishedAt time.Time
}

// Announcement is the social message referencing a published post.
type Announcement struct {
	Text   string
	PostID string
}

// PostTitle formats the blog title for a topic.
func PostTitle(topic Topic) string {
	return fmt.Sprintf(titleTemplate, topic)
}

// AnnouncementText formats the social message for a topic and post URL.
func AnnouncementText(topic Topic, postURL string) string {
	return fmt.Sprintf(announcementTemplate, topic, postURL)
}
