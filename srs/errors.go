package srs

import "errors"

// Sentinel errors for the srs package.
// Check with errors.Is: errors.Is(err, srs.ErrConflict)
var (
	ErrInvalidQuality = errors.New("srs: quality must be an integer between 0 and 5")
	ErrSetNotFound    = errors.New("srs: set not found")
	ErrCardNotFound   = errors.New("srs: card not found in set")
	ErrAccessDenied   = errors.New("srs: access to set denied")
	ErrConflict       = errors.New("srs: scheduling state changed concurrently")
)
