package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the text of a single document page.
type Page struct {
	Number int
	Text   string
}

// Document is a parsed document. Content holds the full extracted text,
// Pages the per-page breakdown used to tag chunks with their origin.
type Document struct {
	Content  string
	Pages    []Page
	Metadata map[string]string
}

// Parser processes a file at the given path into a Document.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to the registered parser for their type.
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
}

// NewParserManager creates a ParserManager with the default detector and
// parsers for PDF and plain-text files.
func NewParserManager() *ParserManager {
	pm := &ParserManager{
		fileTypeDetector: defaultFileTypeDetector,
		parsers:          make(map[string]Parser),
	}
	pm.parsers["pdf"] = NewPDFParser()
	pm.parsers["text"] = NewTextParser()
	return pm
}

// Parse processes a document using the parser matching its detected type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	GlobalLogger.Debug("parsing file", "path", filePath)
	fileType := pm.fileTypeDetector(filePath)
	parser, ok := pm.parsers[fileType]
	if !ok {
		return Document{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		GlobalLogger.Error("failed to parse document", "path", filePath, "error", err)
		return Document{}, err
	}
	GlobalLogger.Debug("parsed document", "path", filePath, "type", fileType, "pages", len(doc.Pages))
	return doc, nil
}

// SetFileTypeDetector replaces the extension-based file type detection.
func (pm *ParserManager) SetFileTypeDetector(detector func(string) string) {
	pm.fileTypeDetector = detector
}

// AddParser registers a parser for a file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

func defaultFileTypeDetector(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return "pdf"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}

// PDFParser extracts text from PDF files using ledongthuc/pdf.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts page-level text from a PDF. Pages with no extractable text
// are skipped.
func (p *PDFParser) Parse(filePath string) (Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, fileInfo.Size())
	if err != nil {
		return Document{}, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var pages []Page
	var contentBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
		contentBuilder.WriteString(text)
		contentBuilder.WriteString("\n\n")
	}

	return Document{
		Content: contentBuilder.String(),
		Pages:   pages,
		Metadata: map[string]string{
			"file_type": "pdf",
			"file_path": filePath,
		},
	}, nil
}

// TextParser reads plain text files as a single page.
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Parse(filePath string) (Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Document{
		Content: string(content),
		Pages:   []Page{{Number: 1, Text: string(content)}},
		Metadata: map[string]string{
			"file_type": "text",
			"file_path": filePath,
		},
	}, nil
}
