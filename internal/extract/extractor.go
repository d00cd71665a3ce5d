package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
	"annual-report-analyzer/internal/types"
)

// ErrUnreadableDocument wraps any failure to open or parse a document.
var ErrUnreadableDocument = errors.New("unreadable document")

var _ interfaces.SectionExtractor = (*Extractor)(nil)

// Extractor reads PDF text page by page and applies the section and metric patterns.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the sections of doc. Any open or parse failure yields an
// error wrapping ErrUnreadableDocument and no partial result.
func (e *Extractor) Extract(ctx context.Context, doc *types.DownloadedDocument) (*types.ExtractedSections, error) {
	op := logger.StartOperation(ctx, "extract_sections", "url", doc.Ref.URL, "path", doc.LocalPath)

	pageCount, err := inspect(doc.LocalPath)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrUnreadableDocument, doc.LocalPath, err)
		op.EndWithError(err)
		return nil, err
	}

	text, err := readPages(doc.LocalPath)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrUnreadableDocument, doc.LocalPath, err)
		op.EndWithError(err)
		return nil, err
	}

	out := ExtractFromText(text, doc.Ref.URL)
	out.LocalPath = doc.LocalPath
	out.PageCount = pageCount

	op.End("pages", pageCount, "chars", len(text))
	return out, nil
}

// inspect validates the file structure and returns its page count.
func inspect(path string) (int, error) {
	pdfCtx, err := pdfapi.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pdf structure: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// readPages concatenates page text in page order. Null pages and pages that
// yield no text contribute nothing. Panics from corrupt streams become errors.
func readPages(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during text extraction: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			return "", fmt.Errorf("page %d: %w", i, pageErr)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}
	return strings.Join(pages, "\n"), nil
}

// ExtractFromText applies every pattern list to text. Anything absent is
// types.NotFound; the result never has missing keys.
func ExtractFromText(text, sourceURL string) *types.ExtractedSections {
	out := &types.ExtractedSections{
		Sections:        make(map[string]string, len(types.SectionNames)),
		Metrics:         make(map[string]string, len(types.MetricNames)),
		ReportDate:      firstOrNotFound(text, reportDateMatchers),
		SourceURL:       sourceURL,
		DocumentCompany: firstOrNotFound(text, companyMatchers),
	}
	for _, name := range types.SectionNames {
		out.Sections[name] = firstOrNotFound(text, sectionMatchers[name])
	}
	for _, name := range types.MetricNames {
		out.Metrics[name] = firstOrNotFound(text, metricMatchers[name])
	}
	return out
}

func firstOrNotFound(text string, matchers []Matcher) string {
	if v, ok := FirstMatch(text, matchers); ok {
		return v
	}
	return types.NotFound
}
