package types

import "time"

// NotFound is the placeholder stored for any section, metric or date the
// extractor could not locate.
const NotFound = "Not Found"

// UnknownCompany is assigned to documents that have no matching listing label.
const UnknownCompany = "Unknown Company"

// Section names
const (
	SectionMDA            = "MD&A"
	SectionAuditorOpinion = "Auditor_Opinion"
	SectionRiskFactors    = "Risk_Factors"
)

// Metric names
const (
	MetricRevenue          = "Revenue"
	MetricNetProfit        = "Net_Profit"
	MetricEBITDA           = "EBITDA"
	MetricTotalAssets      = "Total_Assets"
	MetricTotalLiabilities = "Total_Liabilities"
	MetricEPS              = "EPS"
)

// SectionNames lists the narrative sections in report order.
var SectionNames = []string{SectionMDA, SectionAuditorOpinion, SectionRiskFactors}

// MetricNames lists the financial metrics in report order.
var MetricNames = []string{
	MetricRevenue,
	MetricNetProfit,
	MetricEBITDA,
	MetricTotalAssets,
	MetricTotalLiabilities,
	MetricEPS,
}

// DocumentRef is a document discovered on the listing page
type DocumentRef struct {
	URL   string `json:"url"`
	Label string `json:"label"`
	Index int    `json:"index"` // position in discovery order
}

// DownloadedDocument is a document persisted to the run directory
type DownloadedDocument struct {
	Ref         DocumentRef `json:"ref"`
	LocalPath   string      `json:"local_path"`
	Size        int64       `json:"size"`
	Attempts    int         `json:"attempts"`
	RetrievedAt time.Time   `json:"retrieved_at"`
}

// ExtractedSections holds everything the extractor pulled out of one document
type ExtractedSections struct {
	Sections        map[string]string `json:"sections"`
	Metrics         map[string]string `json:"metrics"`
	ReportDate      string            `json:"report_date"`
	SourceURL       string            `json:"source_url"`
	LocalPath       string            `json:"local_path"`
	PageCount       int               `json:"page_count"`
	DocumentCompany string            `json:"document_company"` // name guessed from the document text
	CompanyName     string            `json:"company_name"`     // listing label, attached by the pipeline
}

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentLabels lists the sentiment labels in report order.
var SentimentLabels = []string{SentimentPositive, SentimentNegative, SentimentNeutral}

// SentimentResult is the sentence-level sentiment distribution of one section
type SentimentResult struct {
	Percentages map[string]float64  `json:"percentages"`
	Insights    map[string][]string `json:"insights"`
}

// NeutralSentiment returns the all-zero distribution used for empty input
// and classifier failures.
func NeutralSentiment() SentimentResult {
	r := SentimentResult{
		Percentages: make(map[string]float64, len(SentimentLabels)),
		Insights:    make(map[string][]string, len(SentimentLabels)),
	}
	for _, l := range SentimentLabels {
		r.Percentages[l] = 0
		r.Insights[l] = []string{}
	}
	return r
}

// ActionLabel is the discrete buy/sell call for a section
type ActionLabel string

const (
	ActionBuy     ActionLabel = "Buy"
	ActionNeutral ActionLabel = "Neutral"
	ActionSell    ActionLabel = "Sell"
)

// ParseActionLabel maps free text to an ActionLabel, defaulting to Neutral.
func ParseActionLabel(s string) ActionLabel {
	switch ActionLabel(s) {
	case ActionBuy, ActionSell, ActionNeutral:
		return ActionLabel(s)
	}
	return ActionNeutral
}

// AnalysisRecord is the terminal aggregate for one successfully processed document
type AnalysisRecord struct {
	Extracted   ExtractedSections          `json:"extracted"`
	CompanyName string                     `json:"company_name"`
	Sentiment   map[string]SentimentResult `json:"analysis"`
	Actions     map[string]ActionLabel     `json:"buy_sell_analysis"`
}

// DropRecord explains why a discovered document produced no record
type DropRecord struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Stage  string `json:"stage"` // download, extract, panic, cancelled
	Reason string `json:"reason"`
}

// RunState is the lifecycle state of a pipeline run
type RunState string

const (
	StateIdle        RunState = "IDLE"
	StateDiscovering RunState = "DISCOVERING"
	StateDownloading RunState = "DOWNLOADING"
	StateAnalyzing   RunState = "ANALYZING"
	StateAggregated  RunState = "AGGREGATED"
	StateClosed      RunState = "CLOSED"
)

// RunResult is the outcome of one pipeline run
type RunResult struct {
	RunID      string            `json:"run_id"`
	ListingURL string            `json:"listing_url"`
	Records    []*AnalysisRecord `json:"records"`
	Discovered int               `json:"discovered"`
	Succeeded  int               `json:"succeeded"`
	Dropped    []DropRecord      `json:"dropped,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	State      RunState          `json:"state"`
}
