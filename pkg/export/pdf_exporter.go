package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section is one page of a multi-page document: a heading block followed by a table.
type Section struct {
	Title   string
	Lines   []string
	Dataset Dataset
}

// PDFExporter renders datasets into tabular PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a single-page PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderSections([]Section{{Title: title, Dataset: data}})
}

// RenderSections renders each section on its own page.
func (e *PDFExporter) RenderSections(sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, section := range sections {
		if len(section.Dataset.Headers) == 0 {
			return nil, fmt.Errorf("pdf section %d requires at least one header", i)
		}
		pdf.AddPage()

		if section.Title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, tr(strings.ToUpper(section.Title)), "", 1, "L", false, 0, "")
		}
		if len(section.Lines) > 0 {
			pdf.SetFont("Arial", "", 10)
			for _, line := range section.Lines {
				pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(4)

		pdf.SetFont("Arial", "B", 9)
		colWidth := 190.0 / float64(len(section.Dataset.Headers))
		for _, header := range section.Dataset.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range section.Dataset.Rows {
			for _, header := range section.Dataset.Headers {
				pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
