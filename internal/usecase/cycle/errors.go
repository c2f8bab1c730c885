// Package cycle runs one generate, publish and announce pass.
//
// A pass moves through SELECT_TOPIC, GENERATE, PUBLISH, ANNOUNCE and DONE. A failed
// generation or publication ends the pass early; a failed announcement is logged.
// Nothing is retried and no failure escapes RunOnce, including panics.
package cycle

import "errors"

// ErrPanicked wraps a panic recovered from a collaborator call.
var ErrPanicked = errors.New("collaborator panicked")
