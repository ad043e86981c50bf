package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"survey-viewer/internal/logging"

	// Image format decoders
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // Survey uploads are TIFF
)

const (
	// MaxImageDimension is the maximum width or height we'll process
	// Images larger than this will be downscaled first
	MaxImageDimension = 8192

	// MaxImagePixels is the maximum total pixels (width * height) we'll decode.
	// Survey TIFFs are large; 64MP uses ~256MB in RGBA.
	MaxImagePixels = 64_000_000
)

// ErrImageTooLarge is returned when an upload exceeds MaxImagePixels.
var ErrImageTooLarge = errors.New("image exceeds pixel limit")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(data []byte) (*ImageDimensions, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// LoadImageConstrained decodes an uploaded image, downscaling if it exceeds
// maxDimension on either side. Images above maxPixels are refused before
// decoding to avoid OOM.
func LoadImageConstrained(data []byte, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	width, height := dimensions.Width, dimensions.Height
	if width*height > maxPixels {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrImageTooLarge)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if width <= maxDimension && height <= maxDimension {
		return img, nil
	}

	logging.Debug("Constraining large image from %dx%d to fit %d", width, height, maxDimension)
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos), nil
}

// DetectFormat identifies an image format from its leading bytes.
func DetectFormat(header []byte) string {
	switch {
	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2A && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2A)):
		return "tiff"

	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2B && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2B)):
		return "bigtiff"

	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return "jpeg"

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return "png"
	}

	return "unknown"
}
