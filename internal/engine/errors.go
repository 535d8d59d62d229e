package engine

import "errors"

var (
	errMissingSink    = errors.New("taint pattern needs at least a source and a sink segment")
	errMissingCapture = errors.New("extract pattern needs a capture group for the nested content")
)
