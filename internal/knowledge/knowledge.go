package knowledge

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

// Base holds the grounding corpus for generation. It is loaded once at
// startup and immutable afterwards; an empty base disables the relevance
// gate.
type Base struct {
	text string
}

// NewBase creates a base from in-memory text. Used by tests to substitute
// knowledge content without touching the filesystem.
func NewBase(text string) *Base {
	return &Base{text: strings.TrimSpace(text)}
}

// Load reads the knowledge base file at path. A missing or empty file is
// not fatal: the service keeps running with an empty base.
func Load(path string, logger *zap.Logger) *Base {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Knowledge base unavailable, relevance gate disabled",
			zap.String("path", path),
			zap.Error(err))
		return &Base{}
	}

	base := NewBase(string(data))
	if !base.Loaded() {
		logger.Warn("Knowledge base file is empty, relevance gate disabled",
			zap.String("path", path))
		return base
	}

	logger.Info("Knowledge base loaded",
		zap.String("path", path),
		zap.Int("bytes", len(base.text)))
	return base
}

// Text returns the full knowledge base text.
func (b *Base) Text() string {
	return b.text
}

// Loaded reports whether any knowledge content is available.
func (b *Base) Loaded() bool {
	return b.text != ""
}
