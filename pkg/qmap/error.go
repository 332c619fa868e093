package qmap

import "errors"

// ErrInvalidMap is returned when the question map file is not a JSON object
// of entries.
var ErrInvalidMap = errors.New("invalid question map")
