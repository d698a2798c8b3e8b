package chunk

import (
	"strings"
	"testing"

	"github.com/corvid-labs/lodestone/pkg/extract"
)

func TestTextEmptyInput(t *testing.T) {
	if got := Text("", DefaultOptions()); got != nil {
		t.Errorf("expected nil chunks for empty input, got %v", got)
	}
}

func TestTextShortInput(t *testing.T) {
	input := "a short document"
	got := Text(input, DefaultOptions())
	if len(got) != 1 || got[0] != input {
		t.Errorf("expected single chunk equal to input, got %v", got)
	}
}

func TestTextBoundaries(t *testing.T) {
	// 2500 characters of word-like text: boundaries should land near 1000
	// and 1800, with the remainder in a third chunk.
	input := buildWords(2500)
	got := Text(input, Options{Size: 1000, Overlap: 200, MaxChunks: 20})

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	for i, c := range got {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	if n := len([]rune(got[0])); n < 1000 || n > 1100 {
		t.Errorf("first chunk length %d, expected near 1000", n)
	}
	if !strings.HasSuffix(input, got[2]) {
		t.Error("last chunk should be a suffix of the input")
	}
}

func TestTextCoverage(t *testing.T) {
	// Reconstructing the text from chunks minus their overlaps must yield
	// the original, modulo whitespace snapping at the boundaries.
	input := buildWords(4200)
	opts := Options{Size: 1000, Overlap: 200, MaxChunks: 20}
	chunks := Text(input, opts)

	runes := []rune(input)
	start := 0
	var rebuilt []rune
	for i, c := range chunks {
		cr := []rune(c)
		if string(runes[start:start+min(len(cr), len(runes)-start)]) != c {
			t.Fatalf("chunk %d does not match input at offset %d", i, start)
		}
		skip := start + len(cr) - len(rebuilt)
		if skip > 0 {
			rebuilt = append(rebuilt, cr[len(cr)-skip:]...)
		}
		start += opts.Size - opts.Overlap
	}
	if string(rebuilt) != input {
		t.Error("concatenated chunks minus overlap do not reconstruct the input")
	}
}

func TestTextMaxChunks(t *testing.T) {
	input := buildWords(50000)
	got := Text(input, Options{Size: 1000, Overlap: 200, MaxChunks: 5})
	if len(got) > 5 {
		t.Errorf("expected at most 5 chunks, got %d", len(got))
	}
}

func TestTextSnapsToWhitespace(t *testing.T) {
	// A word straddling the nominal boundary should stay whole: the cut
	// moves forward to the next space.
	input := strings.Repeat("x", 995) + "unbroken " + buildWords(600)
	got := Text(input, Options{Size: 1000, Overlap: 200, MaxChunks: 20})
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], "unbroken") {
		t.Errorf("boundary split a word: chunk ends with %q", lastRunes(got[0], 20))
	}
}

func TestElementsWithTitles(t *testing.T) {
	elements := []extract.Element{
		{Type: extract.ElementTitle, Text: "Introduction"},
		{Type: extract.ElementNarrativeText, Text: "Opening paragraph."},
		{Type: extract.ElementTitle, Text: "Methods"},
		{Type: extract.ElementNarrativeText, Text: "Methods paragraph."},
		{Type: extract.ElementTable, Text: "a | b\n1 | 2"},
	}
	got := Elements(elements, DefaultOptions())

	if len(got) != 3 {
		t.Fatalf("expected 3 chunks (two titles + leftovers), got %d: %v", len(got), got)
	}
	if !strings.HasPrefix(got[0], "Introduction") {
		t.Errorf("first chunk should start with first title, got %q", got[0])
	}
	if !strings.Contains(got[1], "Methods paragraph.") {
		t.Errorf("second chunk should contain its paragraph, got %q", got[1])
	}
	if !strings.Contains(got[2], "a | b") {
		t.Errorf("final chunk should contain the table, got %q", got[2])
	}
}

func TestElementsWithoutTitles(t *testing.T) {
	elements := []extract.Element{
		{Type: extract.ElementNarrativeText, Text: "First paragraph."},
		{Type: extract.ElementListItem, Text: "item one"},
		{Type: extract.ElementTable, Text: "x | y"},
	}
	got := Elements(elements, DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("expected single chunk, got %d", len(got))
	}
	for _, want := range []string{"First paragraph.", "item one", "x | y"} {
		if !strings.Contains(got[0], want) {
			t.Errorf("chunk missing %q", want)
		}
	}
}

func TestElementsEmpty(t *testing.T) {
	if got := Elements(nil, DefaultOptions()); got != nil {
		t.Errorf("expected nil chunks for no elements, got %v", got)
	}
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func buildWords(length int) string {
	var b strings.Builder
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta"}
	for i := 0; b.Len() < length; i++ {
		b.WriteString(words[i%len(words)])
		b.WriteByte(' ')
	}
	return b.String()[:length]
}
