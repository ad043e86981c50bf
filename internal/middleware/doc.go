// Package middleware provides HTTP middleware for the survey viewer API.
//
// It includes:
//   - Request id assignment ([RequestID])
//   - Access logging in W3C Extended Log Format ([Logger])
//   - Prometheus request metrics labelled by route template ([Metrics])
//   - gzip compression of large JSON responses ([Compression])
package middleware
