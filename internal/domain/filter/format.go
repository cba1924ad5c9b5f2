package filter

import (
	"context"
	"strings"
)

// FallbackFormatID is always available and is used when nothing else is configured.
const FallbackFormatID = "plain_text"

// Format is a text format selecting the filters applied to formatted text.
type Format struct {
	ID      string
	Name    string
	Weight  int
	Enabled bool
}

// Formats resolves the site default text format.
type Formats interface {
	DefaultFormatID(ctx context.Context) (string, error)
}

// Static is a Formats source pinned to a single format id.
type Static string

// DefaultFormatID returns the pinned id, or the fallback format when empty.
func (s Static) DefaultFormatID(context.Context) (string, error) {
	if id := strings.TrimSpace(string(s)); id != "" {
		return id, nil
	}
	return FallbackFormatID, nil
}
