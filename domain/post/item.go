package post

import (
	"fmt"
	"strings"
	"time"
)

// Item holds the metadata the downloader resolved for a post
type Item struct {
	Identifier Identifier
	OwnerName  string
	Title      string
	URL        string // Canonical URL the media is fetched from
	Extractor  string // Name of the downloader extractor that handled the post
	Duration   time.Duration
}

// NewItem creates an Item, rejecting metadata without an owner
func NewItem(id Identifier, ownerName, url string) (*Item, error) {
	if id == "" {
		return nil, ErrEmptyIdentifier
	}

	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		return nil, fmt.Errorf("%w: %s", ErrOwnerUnknown, id)
	}

	return &Item{
		Identifier: id,
		OwnerName:  ownerName,
		URL:        url,
	}, nil
}

// DirName returns the per-item directory name in {owner}_{identifier} form
func (i *Item) DirName() string {
	return sanitizeSegment(i.OwnerName) + "_" + sanitizeSegment(string(i.Identifier))
}

// sanitizeSegment keeps a name usable as a single path element
func sanitizeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}
