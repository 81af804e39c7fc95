package filesystem

import (
	"os"

	"reel-audio/domain/audio"
)

// Checker implements audio.FileChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the size of the file in bytes
func (c *Checker) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Ensure Checker implements audio.FileChecker
var _ audio.FileChecker = (*Checker)(nil)
