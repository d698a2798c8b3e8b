package chunk

import (
	"strings"

	"github.com/corvid-labs/lodestone/pkg/extract"
)

// Elements builds chunks out of structured extraction elements. When titles
// are present, each title starts its own chunk holding the title text and
// the narrative paragraphs up to the next title; lists, tables and any
// paragraphs past the last title are gathered into a final chunk. Without
// titles it falls back to plain chunking over the concatenated text.
func Elements(elements []extract.Element, opts Options) []string {
	var (
		titles     []string
		paragraphs []string
		lists      []string
		tables     []string
	)
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		switch el.Type {
		case extract.ElementTitle, extract.ElementHeader:
			titles = append(titles, text)
		case extract.ElementNarrativeText, extract.ElementUncategorized:
			paragraphs = append(paragraphs, text)
		case extract.ElementList, extract.ElementListItem:
			lists = append(lists, text)
		case extract.ElementTable:
			tables = append(tables, text)
		}
	}

	if len(titles) == 0 {
		joined := strings.Join(concat(paragraphs, lists, tables), "\n\n")
		return Text(joined, opts)
	}

	var chunks []string
	used := make([]bool, len(paragraphs))
	for i, title := range titles {
		parts := []string{title}
		// Paragraphs belong to the current title until one mentions the
		// next title. This is a text-match heuristic, not positional.
		var nextTitle string
		if i+1 < len(titles) {
			nextTitle = titles[i+1]
		}
		for j, p := range paragraphs {
			if used[j] {
				continue
			}
			if nextTitle != "" && strings.Contains(p, nextTitle) {
				break
			}
			parts = append(parts, p)
			used[j] = true
		}
		chunks = append(chunks, strings.Join(parts, "\n\n"))
		if len(chunks) >= opts.normalized().MaxChunks {
			return chunks
		}
	}

	var leftovers []string
	for j, p := range paragraphs {
		if !used[j] {
			leftovers = append(leftovers, p)
		}
	}
	leftovers = append(leftovers, lists...)
	leftovers = append(leftovers, tables...)
	if len(leftovers) > 0 && len(chunks) < opts.normalized().MaxChunks {
		chunks = append(chunks, strings.Join(leftovers, "\n\n"))
	}

	return chunks
}

func concat(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
