// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLoginSucceeded()
	IncLoginFailed()

	// Book lifecycle metrics
	IncBookCreated()
	IncBookDeleted()

	// IncBlobOrphaned counts blob deletions that failed and were swallowed
	// during a book delete. Orphaned objects are reconciled out-of-band.
	IncBlobOrphaned()

	// Auth middleware metrics
	IncAuthCacheHit()
	IncAuthCacheMiss()
	IncAuthRejected()
}
