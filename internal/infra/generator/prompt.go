package generator

import (
	"fmt"

	"bloop/internal/domain/entity"
)

const promptTemplate = `Create an engaging blog post about %s.
Include:
- Engaging title
- Introduction
- Key points and analysis
- Conclusion
Make it informative yet conversational.`

// BuildPrompt returns the fixed blog-post prompt for topic.
func BuildPrompt(topic entity.Topic) string {
	return fmt.Sprintf(promptTemplate, topic)
}
