package filename

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderLength is the width of the fixed header preceding the asset tail.
	HeaderLength = 17
	// KmDigits is the number of leading asset characters holding the track position.
	KmDigits = 6
	// MinStemLength is the shortest extension-less name that can be decoded.
	MinStemLength = HeaderLength + KmDigits

	// UnknownLine is reported when the asset tail carries no line token.
	UnknownLine = "N/A"
)

// Decode error kinds. Use errors.Is against these.
var (
	ErrInvalidExtension  = errors.New("invalid extension")
	ErrMalformedFilename = errors.New("malformed filename")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidKm         = errors.New("invalid km")
)

// DecodeError describes why a single filename could not be decoded.
type DecodeError struct {
	Filename string
	Kind     error
	Detail   string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("decode %q: %v", e.Filename, e.Kind)
	}
	return fmt.Sprintf("decode %q: %v: %s", e.Filename, e.Kind, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

// KindName returns a short label for the error kind, used for metrics.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidExtension):
		return "invalid_extension"
	case errors.Is(err, ErrMalformedFilename):
		return "malformed_filename"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	case errors.Is(err, ErrInvalidKm):
		return "invalid_km"
	default:
		return "unknown"
	}
}

// Metadata is the information encoded in a survey image name.
type Metadata struct {
	AcquisitionDate time.Time `json:"acquisitionDate"`
	AssetName       string    `json:"assetName"`
	Km              float64   `json:"km"`
	Line            string    `json:"line"`
}

var linePattern = regexp.MustCompile(`L\d+`)

// HasImageExtension reports whether name ends in .tif or .tiff, ignoring case.
func HasImageExtension(name string) bool {
	_, ok := trimExtension(name)
	return ok
}

func trimExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range []string{".tiff", ".tif"} {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)], true
		}
	}
	return name, false
}

// Decode extracts survey metadata from an image filename. Lengths and field
// offsets count characters, not bytes, so a non-ASCII character in the
// header shifts nothing.
func Decode(name string) (Metadata, error) {
	stem, ok := trimExtension(name)
	if !ok {
		return Metadata{}, &DecodeError{Filename: name, Kind: ErrInvalidExtension, Detail: "expected .tif or .tiff"}
	}

	chars := []rune(stem)
	if len(chars) < MinStemLength {
		return Metadata{}, &DecodeError{
			Filename: name,
			Kind:     ErrMalformedFilename,
			Detail:   fmt.Sprintf("need at least %d characters before the extension, got %d", MinStemLength, len(chars)),
		}
	}

	header := chars[:HeaderLength]
	asset := string(chars[HeaderLength:])

	acquired, err := decodeTimestamp(header)
	if err != nil {
		return Metadata{}, &DecodeError{Filename: name, Kind: ErrInvalidTimestamp, Detail: err.Error()}
	}

	km, err := decodeKm(chars[HeaderLength : HeaderLength+KmDigits])
	if err != nil {
		return Metadata{}, &DecodeError{Filename: name, Kind: ErrInvalidKm, Detail: err.Error()}
	}

	line := UnknownLine
	if match := linePattern.FindString(asset); match != "" {
		line = match
	}

	return Metadata{
		AcquisitionDate: acquired,
		AssetName:       asset,
		Km:              km,
		Line:            line,
	}, nil
}

// decodeTimestamp reads the acquisition time from the header. Months are
// 1-based in the name and stay 1-based as time.Month.
func decodeTimestamp(header []rune) (time.Time, error) {
	year, err := digits(header, 4, 8, "year")
	if err != nil {
		return time.Time{}, err
	}
	month, err := digits(header, 8, 10, "month")
	if err != nil {
		return time.Time{}, err
	}
	day, err := digits(header, 10, 12, "day")
	if err != nil {
		return time.Time{}, err
	}
	hour, err := digits(header, 12, 14, "hour")
	if err != nil {
		return time.Time{}, err
	}
	minute, err := digits(header, 14, 16, "minute")
	if err != nil {
		return time.Time{}, err
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	if hour > 23 {
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("minute %d out of range", minute)
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, fmt.Errorf("day %d out of range for %04d-%02d", day, year, month)
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

func decodeKm(field []rune) (float64, error) {
	mm, err := digits(field, 0, len(field), "km")
	if err != nil {
		return 0, err
	}
	return float64(mm) / 1000, nil
}

// digits parses s[start:end] as an unsigned ASCII decimal. Signs, spaces
// and other Unicode digits are rejected so that a packed field can never be
// misread.
func digits(s []rune, start, end int, field string) (int, error) {
	part := string(s[start:end])
	for _, r := range s[start:end] {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%s field %q is not numeric", field, part)
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, fmt.Errorf("%s field %q: %w", field, part, err)
	}
	return n, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
