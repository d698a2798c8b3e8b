package extract

// ElementType classifies a structured element returned by the
// structured-extraction service.
type ElementType string

const (
	ElementTitle           ElementType = "Title"
	ElementHeader          ElementType = "Header"
	ElementNarrativeText   ElementType = "NarrativeText"
	ElementList            ElementType = "List"
	ElementListItem        ElementType = "ListItem"
	ElementTable           ElementType = "Table"
	ElementImage           ElementType = "Image"
	ElementFormula         ElementType = "Formula"
	ElementFooter          ElementType = "Footer"
	ElementPageBreak       ElementType = "PageBreak"
	ElementTableOfContents ElementType = "TableOfContents"
	ElementAddress         ElementType = "Address"
	ElementEntity          ElementType = "Entity"
	ElementUncategorized   ElementType = "UncategorizedText"
)

// Element is one typed text fragment of a document, as produced by
// structured extraction. Elements are an in-memory intermediate only and
// are never persisted.
type Element struct {
	Type     ElementType    `json:"type"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the outcome of extracting text from a document. Error carries a
// non-fatal extraction problem (for example a skipped page) without failing
// the whole operation.
type Result struct {
	Text                     string
	Elements                 []Element
	Pages                    int
	Metadata                 map[string]any
	UsedStructuredExtraction bool
	Error                    string
}
