package processor

import (
	"log/slog"

	"filelens/pkg/format"
)

type Options struct {
	// PreserveICC keeps colour profiles (JPEG APP2, PNG iCCP).
	PreserveICC bool
	Logger      *slog.Logger
}

// Result describes one completed removal.
type Result struct {
	Path string
	Kind format.Kind
	// Removed counts the segments, chunks, tags or properties dropped.
	Removed int
	// Rewritten is false when the file already carried nothing to remove
	// and was left untouched.
	Rewritten  bool
	BytesSaved int64
}
