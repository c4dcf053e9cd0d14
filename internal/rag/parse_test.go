package rag

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestParserManagerRoutesTextFiles(t *testing.T) {
	pm := NewParserManager()
	path := writeTempFile(t, "notes.txt", "some plain text")

	doc, err := pm.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Content != "some plain text" {
		t.Errorf("unexpected content %q", doc.Content)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Number != 1 {
		t.Errorf("expected single page 1, got %+v", doc.Pages)
	}
	if doc.Metadata["file_type"] != "text" {
		t.Errorf("unexpected metadata %v", doc.Metadata)
	}
}

func TestParserManagerUnknownType(t *testing.T) {
	pm := NewParserManager()
	if _, err := pm.Parse("document.docx"); err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

type fixedParser struct {
	doc Document
}

func (p *fixedParser) Parse(filePath string) (Document, error) {
	return p.doc, nil
}

func TestParserManagerCustomParser(t *testing.T) {
	pm := NewParserManager()
	pm.AddParser("markdown", &fixedParser{doc: Document{Content: "# heading"}})
	pm.SetFileTypeDetector(func(path string) string {
		if filepath.Ext(path) == ".md" {
			return "markdown"
		}
		return "unknown"
	})

	doc, err := pm.Parse("readme.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Content != "# heading" {
		t.Errorf("custom parser not used, got %q", doc.Content)
	}
}

func TestPDFParserMissingFile(t *testing.T) {
	parser := NewPDFParser()
	if _, err := parser.Parse(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	parser := NewPDFParser()
	path := writeTempFile(t, "fake.pdf", "this is not a pdf")
	if _, err := parser.Parse(path); err == nil {
		t.Fatal("expected error for malformed PDF")
	}
}
