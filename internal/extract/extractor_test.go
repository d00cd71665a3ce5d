package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"

	"annual-report-analyzer/internal/types"
)

const sampleReport = `Acme Corp Annual Report 31 March 2024
Risk Factors
Currency volatility may hurt exports.
Management Discussion & Analysis
The company expanded capacity in two plants.
Revenue from operations ₹ 12,345.67
Net Profit of Rs. 1,020/-
EBITDA: INR 2,500
Total Assets: 98,000
Total Liabilities: $ 41,000.5
Earnings Per Share: 12.50
Diluted EPS: 11.90
Financial Statements
Independent Auditor's Report
In our opinion the statements give a true and fair view.
Notes to Accounts`

// writePDF renders each page's lines as separate text cells. Lines end with a
// space so concatenated page text keeps word boundaries.
func writePDF(t *testing.T, pages [][]string) string {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 11)
	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.Cell(0, 8, line+" ")
			doc.Ln(8)
		}
	}
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := doc.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestExtractFromTextNoCues(t *testing.T) {
	out := ExtractFromText("Lorem ipsum dolor sit amet.\nNothing to see here.", "https://example.com/a.pdf")

	for _, name := range types.SectionNames {
		if out.Sections[name] != types.NotFound {
			t.Errorf("section %s: expected %q, got %q", name, types.NotFound, out.Sections[name])
		}
	}
	for _, name := range types.MetricNames {
		if out.Metrics[name] != types.NotFound {
			t.Errorf("metric %s: expected %q, got %q", name, types.NotFound, out.Metrics[name])
		}
	}
	if out.ReportDate != types.NotFound {
		t.Errorf("Expected report date %q, got %q", types.NotFound, out.ReportDate)
	}
	if out.SourceURL != "https://example.com/a.pdf" {
		t.Errorf("Expected source url to be kept, got %q", out.SourceURL)
	}
}

func TestExtractFromTextEmpty(t *testing.T) {
	out := ExtractFromText("", "")
	if len(out.Sections) != 3 || len(out.Metrics) != 6 {
		t.Fatalf("Expected all keys present, got %d sections and %d metrics", len(out.Sections), len(out.Metrics))
	}
}

func TestExtractFromTextSections(t *testing.T) {
	out := ExtractFromText(sampleReport, "u")

	want := map[string]string{
		types.SectionRiskFactors:    "Currency volatility may hurt exports.",
		types.SectionAuditorOpinion: "In our opinion the statements give a true and fair view.",
	}
	for name, text := range want {
		if out.Sections[name] != text {
			t.Errorf("section %s: expected %q, got %q", name, text, out.Sections[name])
		}
	}
	mda := out.Sections[types.SectionMDA]
	if !strings.HasPrefix(mda, "The company expanded capacity") || strings.Contains(mda, "Financial Statements") {
		t.Errorf("Unexpected MD&A section %q", mda)
	}
	if out.ReportDate != "31 March 2024" {
		t.Errorf("Expected report date 31 March 2024, got %q", out.ReportDate)
	}
	if out.DocumentCompany != "Acme Corp" {
		t.Errorf("Expected document company Acme Corp, got %q", out.DocumentCompany)
	}
}

func TestExtractFromTextMetrics(t *testing.T) {
	out := ExtractFromText(sampleReport, "u")

	want := map[string]string{
		types.MetricRevenue:          "12,345.67",
		types.MetricNetProfit:        "1,020/-",
		types.MetricEBITDA:           "2,500",
		types.MetricTotalAssets:      "98,000",
		types.MetricTotalLiabilities: "41,000.5",
		// the plain EPS pattern is tried before "Earnings Per Share"
		types.MetricEPS: "11.90",
	}
	for name, value := range want {
		if out.Metrics[name] != value {
			t.Errorf("metric %s: expected %q, got %q", name, value, out.Metrics[name])
		}
	}
}

func TestFirstMatchOrder(t *testing.T) {
	matchers := []Matcher{m(`(?i)alpha (\d+)`), m(`(?i)beta (\d+)`)}

	if v, ok := FirstMatch("beta 2 then alpha 1", matchers); !ok || v != "1" {
		t.Errorf("Expected first matcher to win with 1, got %q (%v)", v, ok)
	}
	if v, ok := FirstMatch("only beta 7", matchers); !ok || v != "7" {
		t.Errorf("Expected fallback matcher value 7, got %q (%v)", v, ok)
	}
	if _, ok := FirstMatch("gamma", matchers); ok {
		t.Error("Expected no match")
	}
}

func TestExtractPDF(t *testing.T) {
	path := writePDF(t, [][]string{
		{"Beta Inc Annual Report 30 June 2023"},
		{},
		{"Risk Factors", "Revenue growth was strong this year.", "Losses in the export segment remain a concern."},
	})

	doc := &types.DownloadedDocument{
		Ref:       types.DocumentRef{URL: "https://example.com/beta.pdf", Label: "Beta Inc"},
		LocalPath: path,
	}
	out, err := New().Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if out.PageCount != 3 {
		t.Errorf("Expected 3 pages, got %d", out.PageCount)
	}
	risk := out.Sections[types.SectionRiskFactors]
	if !strings.Contains(risk, "Revenue growth was strong this year.") || !strings.Contains(risk, "remain a concern.") {
		t.Errorf("Unexpected risk factors text %q", risk)
	}
	if out.Sections[types.SectionMDA] != types.NotFound {
		t.Errorf("Expected MD&A %q, got %q", types.NotFound, out.Sections[types.SectionMDA])
	}
	if out.ReportDate != "30 June 2023" {
		t.Errorf("Expected report date 30 June 2023, got %q", out.ReportDate)
	}
	if out.SourceURL != doc.Ref.URL || out.LocalPath != path {
		t.Errorf("Expected source and local path to be recorded, got %q %q", out.SourceURL, out.LocalPath)
	}
}

func TestExtractCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\nthis is not really a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New().Extract(context.Background(), &types.DownloadedDocument{LocalPath: path})
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Fatalf("Expected ErrUnreadableDocument, got %v", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), &types.DownloadedDocument{LocalPath: filepath.Join(t.TempDir(), "nope.pdf")})
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Fatalf("Expected ErrUnreadableDocument, got %v", err)
	}
}
