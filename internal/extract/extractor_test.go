package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		name    string
		ext     string
		content []byte
		want    string
	}{
		{"txt", ".txt", []byte("Hello world\nLine 2"), "Hello world\nLine 2"},
		{"utf8", ".md", []byte("caf\xc3\xa9"), "café"},
		{"invalid utf8", ".rst", []byte("hello\x80world"), "hello�world"},
		{"bom and crlf", ".txt", []byte("\xEF\xBB\xBFline one\r\nline two"), "line one\nline two"},
		{"unknown extension", ".xyz", []byte("raw content"), "raw content"},
		{"uppercase extension", ".TXT", []byte("upper"), "upper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func excelBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Drug")
	f.SetCellValue("Sheet1", "B1", "Dose")
	f.SetCellValue("Sheet1", "A2", "Metformin")
	f.SetCellValue("Sheet1", "B2", "500 mg")
	f.SetCellValue("Sheet1", "A3", "Insulin|glargine")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_excel(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(excelBytes(t), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "## Sheet1\n\n" +
		"| Drug | Dose |\n" +
		"| --- | --- |\n" +
		"| Metformin | 500 mg |\n" +
		"| Insulin\\|glargine |  |"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestExtractBytes_excelInvalid(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a workbook"), ".xlsx"); err == nil {
		t.Error("expected error for invalid workbook")
	}
}

func docxBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(body)); err != nil {
			t.Fatalf("Write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func docxBody(paragraphs string) string {
	return `<w:document ` + wNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func TestExtractBytes_docx(t *testing.T) {
	e := NewExtractor()

	t.Run("paragraphs and runs", func(t *testing.T) {
		content := docxBytes(t, map[string]string{
			"word/document.xml": docxBody(
				`<w:p w:rsidR="00A1"><w:r><w:t>Aspirin </w:t></w:r><w:r><w:t xml:space="preserve">reduces</w:t></w:r></w:p>` +
					`<w:p><w:r><w:t>Dose</w:t><w:tab/><w:t>81 mg</w:t><w:br/><w:t>daily</w:t></w:r></w:p>` +
					`<w:p></w:p>`),
		})
		got, err := e.ExtractBytes(content, ".docx")
		if err != nil {
			t.Fatalf("ExtractBytes: %v", err)
		}
		if want := "Aspirin reduces\nDose\t81 mg\ndaily"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("entities decoded", func(t *testing.T) {
		content := docxBytes(t, map[string]string{
			"word/document.xml": docxBody(`<w:p><w:r><w:t>A &amp; B &lt; C</w:t></w:r></w:p>`),
		})
		got, err := e.ExtractBytes(content, ".docx")
		if err != nil {
			t.Fatalf("ExtractBytes: %v", err)
		}
		if got != "A & B < C" {
			t.Errorf("got %q", got)
		}
	})

	for _, order := range []string{
		`PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"`,
		`ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"`,
	} {
		t.Run("content types "+order[:8], func(t *testing.T) {
			content := docxBytes(t, map[string]string{
				"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Override ` + order + `/></Types>`,
				"word/document2.xml": docxBody(`<w:p><w:r><w:t>Content from document2</w:t></w:r></w:p>`),
			})
			got, err := e.ExtractBytes(content, ".docx")
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != "Content from document2" {
				t.Errorf("got %q", got)
			}
		})
	}

	t.Run("not a zip", func(t *testing.T) {
		if _, err := e.ExtractBytes([]byte("plain"), ".docx"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("missing body", func(t *testing.T) {
		content := docxBytes(t, map[string]string{"other.xml": "<x/>"})
		_, err := e.ExtractBytes(content, ".docx")
		if err == nil || !strings.Contains(err.Error(), "word/document.xml not found") {
			t.Errorf("err = %v", err)
		}
	})
}

func TestExtract_files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("file content"), 0o644); err != nil {
		t.Fatal(err)
	}
	xlsx := filepath.Join(dir, "doses.xlsx")
	if err := os.WriteFile(xlsx, excelBytes(t), 0o644); err != nil {
		t.Fatal(err)
	}
	noext := filepath.Join(dir, "README")
	if err := os.WriteFile(noext, []byte("readme"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	doc, err := e.Extract(txt)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Name != "notes.txt" || doc.Format != "txt" || doc.Text != "file content" {
		t.Errorf("doc = %+v", doc)
	}

	doc, err = e.Extract(xlsx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(doc.Text, "| Metformin | 500 mg |") {
		t.Errorf("text = %q", doc.Text)
	}

	doc, err = e.Extract(noext)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Format != "text" {
		t.Errorf("format = %q", doc.Format)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestDocument_Markdown(t *testing.T) {
	doc := Document{Name: "guideline.pdf", Format: "pdf", Text: "\nBody text\n\n"}
	want := "# guideline\n\n_Imported from `guideline.pdf` (pdf)._\n\nBody text\n"
	if got := doc.Markdown(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractor_Supported(t *testing.T) {
	got := strings.Join(NewExtractor().Supported(), ",")
	if got != ".docx,.md,.odt,.pdf,.rst,.rtf,.txt,.xlsx" {
		t.Errorf("got %s", got)
	}
}
