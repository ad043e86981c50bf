// Command surveyname decodes survey image file names without running the
// server.
//
// Usage:
//
//	surveyname decode CAM1202401151030X123456L12.tif
//	surveyname decode --json ./incoming
//
// Directory arguments are expanded to the TIFF files they contain. The
// command prints one row per name and exits non-zero if any name failed to
// decode.
package main
