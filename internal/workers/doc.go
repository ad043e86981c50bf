/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows the
container CPU limit. Pools sized from this package use GOMAXPROCS:

	// Thumbnail rendering: one worker per CPU, at most 8
	n := workers.ForCPU(8, cfg.ThumbnailWorkers)

A positive override, read from THUMBNAIL_WORKERS by the startup package,
replaces the calculation but is still capped by the limit.
*/
package workers
