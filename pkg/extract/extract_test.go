package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corvid-labs/lodestone/pkg/ai"
)

func TestTypeFromName(t *testing.T) {
	tests := []struct {
		name string
		want DocumentType
	}{
		{"report.pdf", TypePDF},
		{"scan.PNG", TypeImage},
		{"page.html", TypeHTML},
		{"notes.txt", TypeText},
		{"readme.md", TypeMarkdown},
		{"data.csv", TypeCSV},
		{"contract.docx", TypeDocx},
		{"slides.pptx", TypePptx},
		{"sheet.xlsx", TypeXlsx},
		{"message.eml", TypeEmail},
		{"binary.bin", TypeUnknown},
		{"noextension", TypeUnknown},
	}
	for _, tt := range tests {
		if got := TypeFromName(tt.name); got != tt.want {
			t.Errorf("TypeFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractPlainTextWithoutStructuredService(t *testing.T) {
	// Structured service unreachable: a txt file must still extract to its
	// raw content with no error and no structured flag.
	unreachable := NewStructuredClient(NewStructuredClientParams{
		BaseURL: "http://127.0.0.1:1",
	})
	e := NewExtractor(NewExtractorParams{
		Structured: unreachable,
		Strategies: []Strategy{NewTextStrategy()},
	})

	raw := "plain text document content"
	res, err := e.Extract(context.Background(), "notes.txt", []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UsedStructuredExtraction {
		t.Error("expected UsedStructuredExtraction to be false")
	}
	if res.Text != raw {
		t.Errorf("expected raw text back, got %q", res.Text)
	}
	if res.Error != "" {
		t.Errorf("expected empty result error, got %q", res.Error)
	}
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewExtractor(NewExtractorParams{
		Strategies: []Strategy{NewTextStrategy()},
	})

	_, err := e.Extract(context.Background(), "binary.bin", []byte{0x00, 0x01})
	if !errors.Is(err, ErrUnsupportedDocumentType) {
		t.Errorf("expected ErrUnsupportedDocumentType, got %v", err)
	}
}

func TestExtractOfficeRequiresStructured(t *testing.T) {
	tests := []string{"contract.docx", "slides.pptx", "sheet.xlsx", "message.eml"}
	e := NewExtractor(NewExtractorParams{
		Strategies: []Strategy{NewTextStrategy()},
	})

	for _, name := range tests {
		_, err := e.Extract(context.Background(), name, []byte("content"))
		if !errors.Is(err, ErrStructuredExtractionRequired) {
			t.Errorf("%s: expected ErrStructuredExtractionRequired, got %v", name, err)
		}
	}
}

func TestExtractStructuredFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthEndpoint {
			w.WriteHeader(http.StatusOK)
			return
		}
		elements := []structuredElement{
			{Type: "Title", Text: "Heading", Metadata: map[string]any{"page_number": float64(1)}},
			{Type: "NarrativeText", Text: "Body text.", Metadata: map[string]any{"page_number": float64(2)}},
		}
		json.NewEncoder(w).Encode(elements)
	}))
	defer server.Close()

	e := NewExtractor(NewExtractorParams{
		Structured: NewStructuredClient(NewStructuredClientParams{BaseURL: server.URL}),
		Strategies: []Strategy{NewTextStrategy()},
	})

	res, err := e.Extract(context.Background(), "notes.txt", []byte("raw"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.UsedStructuredExtraction {
		t.Error("expected UsedStructuredExtraction to be true")
	}
	if len(res.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(res.Elements))
	}
	if res.Elements[0].Type != ElementTitle {
		t.Errorf("expected Title element, got %v", res.Elements[0].Type)
	}
	if res.Text != "Heading\n\nBody text." {
		t.Errorf("unexpected concatenated text: %q", res.Text)
	}
	if res.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", res.Pages)
	}
}

func TestExtractStructuredFallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthEndpoint {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewExtractor(NewExtractorParams{
		Structured: NewStructuredClient(NewStructuredClientParams{BaseURL: server.URL}),
		Strategies: []Strategy{NewTextStrategy()},
	})

	raw := "fallback content"
	res, err := e.Extract(context.Background(), "notes.txt", []byte(raw))
	if err != nil {
		t.Fatalf("expected silent fallback, got error: %v", err)
	}
	if res.UsedStructuredExtraction {
		t.Error("expected UsedStructuredExtraction to be false after fallback")
	}
	if res.Text != raw {
		t.Errorf("expected raw text from fallback, got %q", res.Text)
	}
}

func TestExtractCachesByContent(t *testing.T) {
	calls := 0
	e := NewExtractor(NewExtractorParams{
		Strategies: []Strategy{countingStrategy{calls: &calls}},
	})

	for range 3 {
		if _, err := e.Extract(context.Background(), "notes.txt", []byte("same")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 strategy call for identical content, got %d", calls)
	}
}

func TestOCRFailureReportedInResult(t *testing.T) {
	// A vision backend that rejects every page must still yield a result:
	// the failure lands in the Error string, not in a returned error.
	ocr := NewOCRStrategy(NewOCRStrategyParams{
		AIClient: failingVisionClient{},
	})

	res, err := ocr.Extract(context.Background(), "scan.png", []byte("not really a png"))
	if err != nil {
		t.Fatalf("expected failure inside the result, got error: %v", err)
	}
	if res.Error == "" {
		t.Error("expected non-empty result error for total transcription failure")
	}
	if res.Text != "" {
		t.Errorf("expected no transcribed text, got %q", res.Text)
	}
}

type failingVisionClient struct{}

func (failingVisionClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (failingVisionClient) GenerateImageDescription(ctx context.Context, prompt string, image ai.Base64Image) (string, error) {
	return "", errors.New("vision model unavailable")
}

func (failingVisionClient) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

type countingStrategy struct {
	calls *int
}

func (s countingStrategy) Supports(t DocumentType) bool { return t == TypeText }

func (s countingStrategy) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	*s.calls++
	return &Result{Text: string(content)}, nil
}
