package chunk

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/corvid-labs/lodestone/pkg/logger"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// TokenCount returns the number of o200k_base tokens in text. Returns 0 if
// the encoding cannot be loaded.
func TokenCount(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Warn("[Chunk] Failed to load token encoding", "error", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return 0
	}
	return len(encoding.Encode(text, nil, nil))
}
