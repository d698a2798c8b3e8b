package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextStrategy handles plain text, markdown and CSV documents.
type TextStrategy struct{}

// NewTextStrategy creates a plain-text extraction strategy.
func NewTextStrategy() *TextStrategy {
	return &TextStrategy{}
}

func (s *TextStrategy) Supports(t DocumentType) bool {
	switch t {
	case TypeText, TypeMarkdown, TypeCSV:
		return true
	}
	return false
}

func (s *TextStrategy) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	return &Result{
		Text:     text,
		Metadata: map[string]any{},
	}, nil
}
