package post

import "errors"

var (
	// ErrEmptyIdentifier is returned when no identifier can be taken from a URL
	ErrEmptyIdentifier = errors.New("post identifier is empty")

	// ErrOwnerUnknown is returned when resolved metadata carries no owner name
	ErrOwnerUnknown = errors.New("post owner is unknown")

	// ErrNoVideoArtifact is returned when a download produced no video file
	ErrNoVideoArtifact = errors.New("no video artifact found")
)
