package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/corvid-labs/lodestone/pkg/logger"
)

const (
	pdfToTextTimeout = 30 * time.Second
	pdfRenderTimeout = 2 * time.Minute
	pdfRenderDPI     = 200

	// scannedTextThreshold is the minimum amount of extracted text below
	// which a PDF is treated as scanned and routed through OCR.
	scannedTextThreshold = 32
)

var multiNewlines = regexp.MustCompile(`\n{3,}`)

// PDFStrategy extracts text from PDFs with pdftotext. PDFs with no text
// layer are rendered to page images and transcribed by the OCR strategy
// when one is configured.
type PDFStrategy struct {
	ocr *OCRStrategy
}

// NewPDFStrategy creates a PDF strategy without OCR support.
func NewPDFStrategy() *PDFStrategy {
	return &PDFStrategy{}
}

// NewPDFOcrStrategy creates a PDF strategy that falls back to OCR for
// scanned documents.
func NewPDFOcrStrategy(ocr *OCRStrategy) *PDFStrategy {
	return &PDFStrategy{ocr: ocr}
}

func (s *PDFStrategy) Supports(t DocumentType) bool {
	return t == TypePDF
}

func (s *PDFStrategy) Extract(ctx context.Context, name string, content []byte) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, content, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	info := pdfInfo(ctx, pdfPath)

	text, err := pdfToText(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Pages:    info.pages,
		Metadata: info.metadata(),
	}

	if len(strings.TrimSpace(text)) >= scannedTextThreshold || s.ocr == nil {
		result.Text = text
		return result, nil
	}

	logger.Debug("[Extract] PDF has no text layer, using OCR",
		"document", name, "pages", info.pages)

	images, err := renderPDFPages(ctx, pdfPath, tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF pages: %w", err)
	}

	ocrText, ocrErr := s.ocr.transcribe(ctx, images)
	result.Text = ocrText
	result.Metadata["ocr"] = true
	if ocrErr != "" {
		result.Error = ocrErr
	}

	return result, nil
}

func pdfToText(ctx context.Context, pdfPath string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pdfToTextTimeout)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-nopgbrk",
		"-q",
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("pdftotext timed out")
	}
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(out))
	}

	text := strings.TrimSpace(string(out))
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return text, nil
}

type pdfDocInfo struct {
	pages  int
	title  string
	author string
}

func (i pdfDocInfo) metadata() map[string]any {
	m := map[string]any{}
	if i.pages > 0 {
		m["pages"] = i.pages
	}
	if i.title != "" {
		m["title"] = i.title
	}
	if i.author != "" {
		m["author"] = i.author
	}
	return m
}

// pdfInfo reads page count and document metadata via pdfinfo. Failures are
// tolerated: the result is simply empty.
func pdfInfo(ctx context.Context, pdfPath string) pdfDocInfo {
	info := pdfDocInfo{}

	if _, err := exec.LookPath("pdfinfo"); err != nil {
		return info
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pdfinfo", pdfPath).Output()
	if err != nil {
		return info
	}

	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Pages":
			if n, err := strconv.Atoi(value); err == nil {
				info.pages = n
			}
		case "Title":
			info.title = value
		case "Author":
			info.author = value
		}
	}

	return info
}

// renderPDFPages rasterizes every page with pdftoppm and returns the page
// images in order.
func renderPDFPages(ctx context.Context, pdfPath string, tmpDir string) ([][]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pdfRenderTimeout)
	defer cancel()

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(
		ctx,
		"pdftoppm",
		"-png",
		"-r", strconv.Itoa(pdfRenderDPI),
		"-q",
		pdfPath,
		prefix,
	)

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdftoppm timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, bytes.TrimSpace(out))
	}

	paths, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(a, b int) bool {
		return pageNum(paths[a]) < pageNum(paths[b])
	})

	images := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page: %w", err)
		}
		images = append(images, data)
	}

	return images, nil
}

func pageNum(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(base[idx+1:])
	return n
}
