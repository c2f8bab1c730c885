package cycle

import "time"

// Stage names a step of the pass.
type Stage string

const (
	StageSelectTopic Stage = "select_topic"
	StageGenerate    Stage = "generate"
	StagePublish     Stage = "publish"
	StageAnnounce    Stage = "announce"
	StageDone        Stage = "done"
)

func (s Stage) String() string { return string(s) }

// Report summarises one pass.
type Report struct {
	CycleID string
	Topic   string

	// Reached is StageDone when the pass ran to its end, early exits included.
	// After a panic it is the stage that was in progress.
	Reached Stage

	// FailedAt is the stage whose step failed, or "" when none did.
	FailedAt Stage

	PostURL  string
	TweetID  string
	Panicked bool
	Duration time.Duration
}

// Succeeded reports whether the post was published and announced.
func (r Report) Succeeded() bool {
	return r.Reached == StageDone && r.FailedAt == "" && !r.Panicked
}
