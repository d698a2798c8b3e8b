package extract

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/corvid-labs/lodestone/pkg/ai"
	"github.com/corvid-labs/lodestone/pkg/logger"
)

const defaultOCRParallel = 4

// OCRStrategy transcribes images to text with an AI vision model. Pages are
// processed in parallel and reassembled in order.
type OCRStrategy struct {
	aiClient ai.Client
	parallel int
}

// NewOCRStrategyParams configures an OCRStrategy.
type NewOCRStrategyParams struct {
	AIClient ai.Client
	Parallel int
}

// NewOCRStrategy creates an OCR strategy backed by the given AI client.
func NewOCRStrategy(params NewOCRStrategyParams) *OCRStrategy {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = defaultOCRParallel
	}
	return &OCRStrategy{
		aiClient: params.AIClient,
		parallel: parallel,
	}
}

func (s *OCRStrategy) Supports(t DocumentType) bool {
	return t == TypeImage
}

// Extract transcribes a single image. Transcription failures, total or
// partial, are reported in the result's Error string rather than as a
// returned error; the caller decides whether a degraded result is usable.
func (s *OCRStrategy) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	text, transcribeErr := s.transcribe(ctx, [][]byte{content})

	return &Result{
		Text:     text,
		Pages:    1,
		Metadata: map[string]any{"ocr": true},
		Error:    transcribeErr,
	}, nil
}

// transcribe runs vision OCR over the images in parallel. A page that fails
// does not abort the rest: its error is collected into the returned error
// string and the remaining pages are kept.
func (s *OCRStrategy) transcribe(ctx context.Context, images [][]byte) (string, string) {
	output := make([]string, len(images))
	failures := make([]string, 0)
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for i, img := range images {
		idx := i
		image := img
		g.Go(func() error {
			logger.Debug("[OCR] Processing page", "number", idx+1, "total", len(images))

			b64 := ai.Base64Image{
				Base64:   base64.StdEncoding.EncodeToString(image),
				FileType: "data:image/png;base64,",
			}
			desc, err := s.aiClient.GenerateImageDescription(gCtx, ai.TranscribePrompt, b64)
			if err != nil {
				mu.Lock()
				failures = append(failures, err.Error())
				mu.Unlock()
				return nil
			}

			mu.Lock()
			output[idx] = desc
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return errors; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		mu.Lock()
		failures = append(failures, err.Error())
		mu.Unlock()
	}

	var text strings.Builder
	for _, page := range output {
		if page == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(page)
	}

	return text.String(), strings.Join(failures, "; ")
}
