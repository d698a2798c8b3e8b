package chunk

import (
	"unicode"
)

const (
	// DefaultSize is how many characters a chunk covers before overlap.
	DefaultSize = 1000
	// DefaultOverlap is how many trailing characters are repeated at the
	// start of the following chunk.
	DefaultOverlap = 200
	// DefaultMaxChunks caps how many chunks a single document produces.
	DefaultMaxChunks = 20

	// snapWindow is how far past the nominal chunk boundary we search for
	// whitespace to avoid cutting mid-word.
	snapWindow = 100
)

// Options control how text is split into chunks.
type Options struct {
	Size      int
	Overlap   int
	MaxChunks int
}

// DefaultOptions returns the standard chunking parameters.
func DefaultOptions() Options {
	return Options{
		Size:      DefaultSize,
		Overlap:   DefaultOverlap,
		MaxChunks: DefaultMaxChunks,
	}
}

func (o Options) normalized() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		o.Overlap = DefaultOverlap
		if o.Overlap >= o.Size {
			o.Overlap = o.Size / 5
		}
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = DefaultMaxChunks
	}
	return o
}

// Text splits text into overlapping chunks of roughly opts.Size characters.
// The window end snaps forward to the next whitespace if one occurs within
// snapWindow characters past the boundary, and the window start advances by
// Size-Overlap so consecutive chunks share their edges. Empty input yields
// no chunks.
func Text(text string, opts Options) []string {
	opts = opts.normalized()

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= opts.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for len(chunks) < opts.MaxChunks {
		end := start + opts.Size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		end = snapToWhitespace(runes, end)
		chunks = append(chunks, string(runes[start:end]))

		next := start + opts.Size - opts.Overlap
		if next <= start || next >= len(runes)-1 {
			break
		}
		start = next
	}

	return chunks
}

// snapToWhitespace moves end forward to the next whitespace rune, but at
// most snapWindow positions, so words are not split at chunk boundaries.
func snapToWhitespace(runes []rune, end int) int {
	limit := end + snapWindow
	if limit > len(runes) {
		limit = len(runes)
	}
	for i := end; i < limit; i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}
