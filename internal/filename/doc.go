/*
Package filename decodes the metadata packed into aerial-survey image names.

# Layout

A survey image name is a fixed-width record followed by a free-form asset tail:

	CAM1 2024 01 15 10 30 X 123456L12 .tif
	|    |    |  |  |  |  | |
	|    |    |  |  |  |  | +-- asset tail (everything from position 17)
	|    |    |  |  |  |  +---- unused header byte
	|    |    |  |  |  +------- minute  [14,16)
	|    |    |  |  +---------- hour    [12,14)
	|    |    |  +------------- day     [10,12)
	|    |    +---------------- month   [8,10), 1-based
	|    +--------------------- year    [4,8)
	+-------------------------- camera/prefix, ignored

The asset tail becomes the asset name and is the folder grouping key. Its first
six characters are the track position in millimetres; the first "L<digits>"
token anywhere in the tail is the line identifier.

# Usage

	meta, err := filename.Decode("CAM1202401151030X123456L12.tif")
	if errors.Is(err, filename.ErrInvalidExtension) {
		// not a TIFF, reject this one file
	}

Decode is pure. CachedDecoder memoises results for batch uploads where the
same names are often retried.
*/
package filename
