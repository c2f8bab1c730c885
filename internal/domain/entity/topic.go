// Package entity defines the core domain entities of the bot: the topic rotation,
// the published post, the announcement, and the tagged Result returned by every
// external call of a cycle.
package entity

// Topic names the subject of a generated post.
type Topic string

// DefaultTopics is the fixed rotation. Order matters: SelectTopic indexes into it.
var DefaultTopics = []Topic{
	"AI and Machine Learning Trends",
	"Future of Technology",
	"Digital Innovation",
	"Tech Industry Analysis",
	"Emerging Technologies",
}

// SelectTopic picks topics[day mod len(topics)].
//
// It is a pure function of its inputs so that rotation can be tested without a clock.
// Negative days are folded back into range.
//
// Example:
//
//	SelectTopic(7, DefaultTopics) // "Digital Innovation"
func SelectTopic(day int, topics []Topic) (Topic, error) {
	if len(topics) == 0 {
		return "", ErrNoTopics
	}
	idx := day % len(topics)
	if idx < 0 {
		idx += len(topics)
	}
	return topics[idx], nil
}

// String implements fmt.Stringer.
func (t Topic) String() string {
	return string(t)
}
