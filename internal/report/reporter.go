package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"annual-report-analyzer/internal/types"
)

// ReportFormat specifies the output format for run reports
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatText ReportFormat = "text"
	FormatCSV  ReportFormat = "csv"
	FormatPDF  ReportFormat = "pdf"
)

// Insight samples shown per label in text and PDF reports.
const (
	sampleFrom = 3
	sampleTo   = 7
)

var sectionHeadings = map[string]string{
	types.SectionMDA:            "Management Discussion & Analysis",
	types.SectionAuditorOpinion: "Auditor's Opinion",
	types.SectionRiskFactors:    "Risk Factors Analysis",
}

var metricLabels = map[string]string{
	types.MetricRevenue:          "Revenue",
	types.MetricNetProfit:        "Net Profit",
	types.MetricEBITDA:           "EBITDA",
	types.MetricTotalAssets:      "Total Assets",
	types.MetricTotalLiabilities: "Total Liabilities",
	types.MetricEPS:              "EPS",
}

// insightOrder is the label order used when listing sample statements
var insightOrder = []string{types.SentimentPositive, types.SentimentNeutral, types.SentimentNegative}

// ResultEntry is one document in the results contract
type ResultEntry struct {
	PDFURL          string                           `json:"pdf_url"`
	Analysis        map[string]types.SentimentResult `json:"analysis"`
	BuySellAnalysis map[string]types.ActionLabel     `json:"buy_sell_analysis"`
}

// Results is the payload returned to API clients
type Results struct {
	Results    []ResultEntry `json:"results"`
	Discovered int           `json:"discovered"`
	Succeeded  int           `json:"succeeded"`
	RunID      string        `json:"run_id"`
}

// NewResults projects a run onto the results contract.
func NewResults(run *types.RunResult) Results {
	out := Results{
		Results:    make([]ResultEntry, 0, len(run.Records)),
		Discovered: run.Discovered,
		Succeeded:  run.Succeeded,
		RunID:      run.RunID,
	}
	for _, rec := range run.Records {
		out.Results = append(out.Results, ResultEntry{
			PDFURL:          rec.Extracted.SourceURL,
			Analysis:        rec.Sentiment,
			BuySellAnalysis: rec.Actions,
		})
	}
	return out
}

// Reporter handles generation and storage of run reports
type Reporter struct {
	outputDir string
}

func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// GenerateReport renders run in the given format
func (r *Reporter) GenerateReport(run *types.RunResult, format ReportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return r.generateJSONReport(run)
	case FormatText:
		return []byte(r.generateTextReport(run)), nil
	case FormatCSV:
		return r.generateCSVReport(run)
	case FormatPDF:
		return r.generatePDFReport(run)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// SaveReport writes the report to annual_reports_{timestamp}.{ext} in the output dir
func (r *Reporter) SaveReport(run *types.RunResult, format ReportFormat) (string, error) {
	content, err := r.GenerateReport(run, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", err
	}

	ts := run.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	ext := string(format)
	if format == FormatText {
		ext = "txt"
	}
	path := filepath.Join(r.outputDir, fmt.Sprintf("annual_reports_%s.%s", ts.Format("2006-01-02_15-04-05"), ext))

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Reporter) generateJSONReport(run *types.RunResult) ([]byte, error) {
	return json.MarshalIndent(NewResults(run), "", "  ")
}

func (r *Reporter) generateTextReport(run *types.RunResult) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("ANNUAL REPORT ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n", run.RunID))
	sb.WriteString(fmt.Sprintf("Listing: %s\n", run.ListingURL))
	sb.WriteString(fmt.Sprintf("Documents: %d discovered, %d analyzed\n", run.Discovered, run.Succeeded))

	for _, rec := range run.Records {
		sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
		sb.WriteString(fmt.Sprintf("Analysis Report for %s\n", rec.CompanyName))
		if rec.Extracted.ReportDate != types.NotFound {
			sb.WriteString(fmt.Sprintf(" %s\n", rec.Extracted.ReportDate))
		}
		sb.WriteString(fmt.Sprintf("PDF Source: %s\n", rec.Extracted.SourceURL))
		sb.WriteString(strings.Repeat("=", 80) + "\n")

		sb.WriteString("\nKey Financial Metrics:\n")
		for _, name := range types.MetricNames {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", metricLabels[name], rec.Extracted.Metrics[name]))
		}

		sb.WriteString("\nSentiment Analysis:\n")
		for _, name := range types.SectionNames {
			r.addSectionAnalysis(&sb, rec.Sentiment[name], sectionHeadings[name])
		}

		sb.WriteString("\nBuy/Neutral/Sell Predictions:\n")
		for _, name := range types.SectionNames {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", name, rec.Actions[name]))
		}
	}

	if len(run.Dropped) > 0 {
		sb.WriteString("\n" + strings.Repeat("-", 80) + "\n")
		sb.WriteString(fmt.Sprintf("SKIPPED DOCUMENTS: %d\n", len(run.Dropped)))
		for _, d := range run.Dropped {
			sb.WriteString(fmt.Sprintf("- #%d %s [%s] %s\n", d.Index, d.URL, d.Stage, d.Reason))
		}
	}

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	return sb.String()
}

func (r *Reporter) addSectionAnalysis(sb *strings.Builder, res types.SentimentResult, heading string) {
	sb.WriteString(fmt.Sprintf("\n%s:\n", heading))
	sb.WriteString(fmt.Sprintf("Sentiment Distribution: %s\n", distribution(res)))
	sb.WriteString("Key Insights:\n")
	for _, label := range insightOrder {
		if len(res.Insights[label]) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s Statements:\n", strings.ToUpper(label[:1])+label[1:]))
		for _, sent := range sample(res.Insights[label]) {
			sb.WriteString(fmt.Sprintf("  • %s\n", sent))
		}
	}
}

func distribution(res types.SentimentResult) string {
	parts := make([]string, 0, len(types.SentimentLabels))
	for _, label := range types.SentimentLabels {
		parts = append(parts, fmt.Sprintf("%s %.2f%%", label, res.Percentages[label]))
	}
	return strings.Join(parts, ", ")
}

// sample returns the statements shown for one label, skipping the first few
// which tend to be headings and boilerplate.
func sample(sents []string) []string {
	from, to := min(sampleFrom, len(sents)), min(sampleTo, len(sents))
	return sents[from:to]
}

func (r *Reporter) generateCSVReport(run *types.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Company", "ReportDate", "PDFURL"}
	header = append(header, types.MetricNames...)
	for _, name := range types.SectionNames {
		for _, label := range types.SentimentLabels {
			header = append(header, name+"_"+label)
		}
		header = append(header, name+"_action")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range run.Records {
		row := []string{rec.CompanyName, rec.Extracted.ReportDate, rec.Extracted.SourceURL}
		for _, name := range types.MetricNames {
			row = append(row, rec.Extracted.Metrics[name])
		}
		for _, name := range types.SectionNames {
			for _, label := range types.SentimentLabels {
				row = append(row, fmt.Sprintf("%.2f", rec.Sentiment[name].Percentages[label]))
			}
			row = append(row, string(rec.Actions[name]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func (r *Reporter) generatePDFReport(run *types.RunResult) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle("Annual Report Analysis", true)
	doc.SetMargins(15, 15, 15)
	doc.SetAutoPageBreak(true, 15)

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Annual Report Analysis")
	doc.Ln(12)
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, tr(fmt.Sprintf("Run %s\nListing %s\n%d discovered, %d analyzed",
		run.RunID, run.ListingURL, run.Discovered, run.Succeeded)), "", "L", false)

	for _, rec := range run.Records {
		doc.AddPage()
		doc.SetFont("Helvetica", "B", 14)
		doc.MultiCell(0, 7, tr(rec.CompanyName), "", "L", false)
		doc.SetFont("Helvetica", "", 9)
		if rec.Extracted.ReportDate != types.NotFound {
			doc.MultiCell(0, 5, tr(rec.Extracted.ReportDate), "", "L", false)
		}
		doc.MultiCell(0, 5, tr(rec.Extracted.SourceURL), "", "L", false)
		doc.Ln(3)

		doc.SetFont("Helvetica", "B", 11)
		doc.Cell(0, 7, "Key Financial Metrics")
		doc.Ln(7)
		doc.SetFont("Helvetica", "", 10)
		for _, name := range types.MetricNames {
			doc.CellFormat(50, 6, metricLabels[name], "1", 0, "L", false, 0, "")
			doc.CellFormat(0, 6, tr(rec.Extracted.Metrics[name]), "1", 1, "L", false, 0, "")
		}
		doc.Ln(3)

		for _, name := range types.SectionNames {
			res := rec.Sentiment[name]
			doc.SetFont("Helvetica", "B", 11)
			doc.MultiCell(0, 7, tr(fmt.Sprintf("%s (%s)", sectionHeadings[name], rec.Actions[name])), "", "L", false)
			doc.SetFont("Helvetica", "", 10)
			doc.MultiCell(0, 5, distribution(res), "", "L", false)
			for _, label := range insightOrder {
				for _, sent := range sample(res.Insights[label]) {
					doc.MultiCell(0, 5, tr("- ["+label+"] "+sent), "", "L", false)
				}
			}
			doc.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf report: %w", err)
	}
	return buf.Bytes(), nil
}
