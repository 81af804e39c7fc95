package audio

import "errors"

var (
	ErrSourceMissing     = errors.New("source media does not exist")
	ErrSourceEmpty       = errors.New("source media is empty")
	ErrUnsupportedSource = errors.New("unsupported source media extension")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoAudioStream     = errors.New("media has no audio stream")
)
