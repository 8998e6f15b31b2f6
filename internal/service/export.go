package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/pkordes/tripboard/internal/domain"
)

// Export returns the plan as indented UTF-8 JSON in the {days, unassigned}
// shape. Import accepts the result unchanged.
func (s *ItineraryStore) Export() ([]byte, error) {
	out, err := json.MarshalIndent(s.doc.value(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryStore.Export: %w", err)
	}
	return append(out, '\n'), nil
}

// ShareText returns the plan flattened into plain text for pasting into a
// chat: one block per day separated by blank lines.
func (s *ItineraryStore) ShareText() string {
	return ShareText(s.doc.value())
}

// ShareText renders p as plain text. Each day block starts with a
// "date title" line, then the summary when present, then one line per
// activity with its location and tip appended when present.
func ShareText(p domain.Plan) string {
	blocks := make([]string, 0, len(p.Days))
	for _, d := range p.Days {
		var b strings.Builder
		b.WriteString(strings.TrimSpace(d.Date + " " + d.Title))
		if d.Summary != "" {
			b.WriteString("\n")
			b.WriteString(d.Summary)
		}
		for _, a := range d.Activities {
			b.WriteString("\n")
			b.WriteString(activityLine(a))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func activityLine(a domain.Activity) string {
	line := strings.TrimSpace(a.Time + " " + a.Title)
	if a.Location != "" {
		line += " @ " + a.Location
	}
	if a.Tips != "" {
		line += " (tip: " + a.Tips + ")"
	}
	return line
}

// pdf layout, in millimetres.
const (
	pdfQRSize     = 35.0
	pdfLineHeight = 6.0
	pdfFont       = "body"
)

// ExportPDF renders a printable A4 itinerary. When shareURL is set, a QR
// code linking to it is printed on the first page.
//
// The built-in PDF fonts only cover Latin-1. Configure PDFFontPath with a
// TrueType font to print other scripts.
func (s *ItineraryStore) ExportPDF(shareURL string) ([]byte, error) {
	out, err := renderPDF(s.doc.value(), shareURL, s.fontPath)
	if err != nil {
		return nil, fmt.Errorf("service.ItineraryStore.ExportPDF: %w", err)
	}
	return out, nil
}

func renderPDF(p domain.Plan, shareURL, fontPath string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath != "" {
		pdf.AddUTF8Font(pdfFont, "", fontPath)
		pdf.AddUTF8Font(pdfFont, "B", fontPath)
		family = pdfFont
		tr = func(s string) string { return s }
	}
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	if shareURL != "" {
		png, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share-qr", opts, bytes.NewReader(png))
		pageW, _ := pdf.GetPageSize()
		_, _, right, _ := pdf.GetMargins()
		pdf.ImageOptions("share-qr", pageW-right-pdfQRSize, 10, pdfQRSize, pdfQRSize, false, opts, 0, shareURL)
	}

	pdf.SetFont(family, "B", 18)
	pdf.Cell(0, 10, tr("Trip itinerary"))
	pdf.Ln(14)
	if shareURL != "" {
		pdf.SetFont(family, "", 9)
		pdf.Cell(0, 5, tr(shareURL))
		pdf.Ln(pdfQRSize - 10)
	}

	for _, d := range p.Days {
		pdf.SetFont(family, "B", 13)
		pdf.MultiCell(0, 8, tr(strings.TrimSpace(d.Date+"  "+d.Title)), "B", "L", false)
		if d.Summary != "" {
			pdf.SetFont(family, "", 10)
			pdf.MultiCell(0, 5, tr(d.Summary), "", "L", false)
		}
		pdf.SetFont(family, "", 11)
		for _, a := range d.Activities {
			pdf.MultiCell(0, pdfLineHeight, tr(activityLine(a)), "", "L", false)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
