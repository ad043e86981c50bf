// Package handlers provides HTTP request handlers for the survey viewer API.
//
// It includes handlers for:
//   - Folder listing, search and deletion
//   - Image lookup, deletion and thumbnails
//   - Batch uploads with per-file results
//   - Favorites on folders and images
//   - Starting image processing
//   - Health checks, version and catalog stats
//
// Service errors map onto status codes: unknown ids are 404, a second
// processing request for the same image is 409 and undecodable filenames
// are 422.
package handlers
