// Package memory keeps the server inside its container memory limit.
//
// Decoding a full-resolution survey TIFF for a thumbnail can take hundreds of
// megabytes, and uploads arrive in batches. Go does not derive GOMEMLIMIT from
// the cgroup the way it does GOMAXPROCS, so [ConfigureFromEnv] sets it from
// the Kubernetes Downward API, and [Monitor] turns heap usage into a
// backpressure signal for the thumbnail workers.
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go variable. Takes precedence when set.
//   - MEMORY_LIMIT: Container memory limit in bytes.
//   - MEMORY_RATIO: Share of MEMORY_LIMIT for the Go heap, between 0.0 and
//     1.0 (default: 0.85).
//
// # Kubernetes Configuration
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// # Backpressure
//
// The monitor samples the heap every CheckInterval. Above HighWaterMark,
// [Monitor.ShouldThrottle] reports true and new thumbnail jobs are skipped.
// Above CriticalWaterMark the monitor forces a GC and workers block in
// [Monitor.WaitIfPaused] until usage falls back under HighWaterMark.
// Stop the monitor before waiting on the workers so none stays blocked.
//
// # Metrics
//
//   - survey_viewer_memory_usage_ratio
//   - survey_viewer_memory_paused
//   - survey_viewer_memory_gc_pauses_total
package memory
