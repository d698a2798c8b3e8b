package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/corvid-labs/lodestone/pkg/logger"
)

// DocumentType identifies how a document's bytes should be interpreted.
type DocumentType string

const (
	TypePDF      DocumentType = "pdf"
	TypeImage    DocumentType = "image"
	TypeHTML     DocumentType = "html"
	TypeText     DocumentType = "text"
	TypeMarkdown DocumentType = "markdown"
	TypeCSV      DocumentType = "csv"
	TypeDocx     DocumentType = "docx"
	TypePptx     DocumentType = "pptx"
	TypeXlsx     DocumentType = "xlsx"
	TypeEmail    DocumentType = "email"
	TypeUnknown  DocumentType = "unknown"
)

var (
	// ErrUnsupportedDocumentType is returned when no strategy can handle
	// the document's type.
	ErrUnsupportedDocumentType = errors.New("unsupported document type")
	// ErrStructuredExtractionRequired is returned for formats that can only
	// be processed by the structured-extraction service when that service
	// is unavailable or failed.
	ErrStructuredExtractionRequired = errors.New("structured extraction required but unavailable")
	// ErrExtractionFailed wraps failures of the selected extraction path.
	ErrExtractionFailed = errors.New("extraction failed")
)

// TypeFromName infers the document type from the filename extension.
func TypeFromName(name string) DocumentType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return TypePDF
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff":
		return TypeImage
	case ".html", ".htm", ".xhtml":
		return TypeHTML
	case ".txt", ".log":
		return TypeText
	case ".md", ".markdown":
		return TypeMarkdown
	case ".csv", ".tsv":
		return TypeCSV
	case ".docx", ".doc", ".odt", ".rtf":
		return TypeDocx
	case ".pptx", ".ppt", ".odp":
		return TypePptx
	case ".xlsx", ".xls", ".ods":
		return TypeXlsx
	case ".eml", ".msg":
		return TypeEmail
	default:
		return TypeUnknown
	}
}

// requiresStructured reports whether the type has no standard extraction
// path and must go through the structured-extraction service.
func requiresStructured(t DocumentType) bool {
	switch t {
	case TypeDocx, TypePptx, TypeXlsx, TypeEmail:
		return true
	}
	return false
}

// Strategy is one way of turning document bytes into text.
type Strategy interface {
	Supports(t DocumentType) bool
	Extract(ctx context.Context, name string, content []byte) (*Result, error)
}

// ProgressFunc receives extraction progress as a percentage and a short
// human-readable message. Implementations must not block.
type ProgressFunc func(percent int, message string)

// Extractor dispatches document bytes to an extraction strategy. When a
// structured-extraction service is configured and healthy it is tried first
// for every type; on failure the type-specific standard path takes over.
type Extractor struct {
	structured *StructuredClient
	strategies []Strategy
	progress   ProgressFunc

	cache   map[string]*Result
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewExtractorParams configures an Extractor.
type NewExtractorParams struct {
	// Structured is the optional structured-extraction service client.
	Structured *StructuredClient
	// Strategies are consulted in order after the structured attempt.
	Strategies []Strategy
	// Progress receives extraction milestones. May be nil.
	Progress ProgressFunc
}

// NewExtractor creates an Extractor with the given strategy chain.
func NewExtractor(params NewExtractorParams) *Extractor {
	return &Extractor{
		structured: params.Structured,
		strategies: params.Strategies,
		progress:   params.Progress,
		cache:      make(map[string]*Result),
	}
}

// Extract turns document bytes into text and optional structured elements.
// Repeated calls with identical content are deduplicated and cached.
func (e *Extractor) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	key := cacheKey(name, content)

	e.cacheMu.RLock()
	if cached, ok := e.cache[key]; ok {
		e.cacheMu.RUnlock()
		return cached, nil
	}
	e.cacheMu.RUnlock()

	result, err, _ := e.group.Do(key, func() (any, error) {
		e.cacheMu.RLock()
		if cached, ok := e.cache[key]; ok {
			e.cacheMu.RUnlock()
			return cached, nil
		}
		e.cacheMu.RUnlock()

		res, err := e.extract(ctx, name, content)
		if err != nil {
			return nil, err
		}

		e.cacheMu.Lock()
		e.cache[key] = res
		e.cacheMu.Unlock()

		return res, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Result), nil
}

func (e *Extractor) extract(ctx context.Context, name string, content []byte) (*Result, error) {
	t := TypeFromName(name)
	if t == TypeUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, filepath.Ext(name))
	}

	e.emit(0, "starting extraction")

	if e.structured != nil && e.structured.Healthy(ctx) {
		res, err := e.structured.Extract(ctx, name, content)
		if err == nil {
			res.UsedStructuredExtraction = true
			e.emit(100, "structured extraction complete")
			return res, nil
		}
		logger.Warn("[Extract] Structured extraction failed, falling back",
			"document", name, "error", err)
	}

	if requiresStructured(t) {
		return nil, fmt.Errorf("%w: %s documents have no standard extraction path",
			ErrStructuredExtractionRequired, t)
	}

	for _, s := range e.strategies {
		if !s.Supports(t) {
			continue
		}
		res, err := s.Extract(ctx, name, content)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, t, err)
		}
		e.emit(100, "extraction complete")
		return res, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, t)
}

func (e *Extractor) emit(percent int, message string) {
	if e.progress != nil {
		e.progress(percent, message)
	}
}

func cacheKey(name string, content []byte) string {
	sum := sha256.Sum256(content)
	return name + ":" + hex.EncodeToString(sum[:])
}
