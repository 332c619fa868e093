package document

import "errors"

var (
	// ErrUnsupportedFormat is returned when the file extension is not one of
	// the recognized document formats.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrMalformed is returned when a recognized format fails to parse.
	ErrMalformed = errors.New("malformed document")
)
