// Package resilience groups fault-isolation helpers for calls to external services.
//
// Only circuit breaking lives here. Calls are never retried: a failed call is
// reported to the caller once, and the breaker records it so that a collaborator
// that keeps failing shows up as open on the health endpoint.
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.CMSConfig())
//	post, err := circuitbreaker.Do(cb, func() (entity.Post, error) {
//	    return createPost(ctx, title, html)
//	})
package resilience
