package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrOpen    = errors.New("open games database")
	ErrQuery   = errors.New("query games")
	ErrReplace = errors.New("replace games")
)
