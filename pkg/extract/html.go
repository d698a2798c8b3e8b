package extract

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"

	"github.com/corvid-labs/lodestone/pkg/logger"
)

// HTMLStrategy extracts readable text from HTML documents. It prefers
// readability's main-content extraction and falls back to stripping all
// tags when readability cannot find an article.
type HTMLStrategy struct{}

// NewHTMLStrategy creates an HTML extraction strategy.
func NewHTMLStrategy() *HTMLStrategy {
	return &HTMLStrategy{}
}

func (s *HTMLStrategy) Supports(t DocumentType) bool {
	return t == TypeHTML
}

func (s *HTMLStrategy) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	result := &Result{Metadata: map[string]any{}}

	// readability wants a base URL for resolving relative links; the
	// document has none, so a synthetic one is used.
	base, err := url.Parse("http://localhost/" + url.PathEscape(name))
	if err != nil {
		base = &url.URL{Scheme: "http", Host: "localhost"}
	}

	article, err := readability.FromReader(bytes.NewReader(content), base)
	if err == nil {
		var builder strings.Builder
		if renderErr := article.RenderText(&builder); renderErr == nil && builder.Len() > 0 {
			result.Text = builder.String()
			return result, nil
		}
	}

	logger.Debug("[Extract] Readability found no article, stripping tags",
		"document", name)

	text, err := stripHTMLTags(content)
	if err != nil {
		return nil, err
	}
	result.Text = text
	return result, nil
}

// stripHTMLTags walks the HTML tree and concatenates all visible text.
func stripHTMLTags(content []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if builder.Len() > 0 {
					builder.WriteByte('\n')
				}
				builder.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return builder.String(), nil
}
