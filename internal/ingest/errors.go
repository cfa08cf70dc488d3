package ingest

import "errors"

// Error constants.
var (
	ErrRead   = errors.New("read csv failed")
	ErrHeader = errors.New("invalid csv header")
	ErrStore  = errors.New("store games failed")
)
