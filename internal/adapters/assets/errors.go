package assets

import "errors"

// Sentinel kinds for asset errors.
var (
	ErrList        = errors.New("list assets")
	ErrInvalidName = errors.New("invalid asset name")
	ErrLoad        = errors.New("load asset")
	ErrDecode      = errors.New("decode asset")
	ErrWatch       = errors.New("watch assets")
)
