// Package logging provides a simple leveled logging interface for the
// survey viewer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is read once from DEBUG or LOG_LEVEL and can be changed at
// runtime with SetLevel.
package logging
