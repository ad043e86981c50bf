// Package media renders thumbnails of uploaded survey images.
//
// Uploads are decoded from memory (TIFF via golang.org/x/image/tiff, plus JPEG
// and PNG), refused above MaxImagePixels, fitted into a ThumbnailSize box with
// imaging and cached as JPEG files named after the image id. Generation runs
// on a bounded worker pool; Submit never blocks the upload path.
package media
