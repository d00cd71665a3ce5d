package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"annual-report-analyzer/internal/interfaces"
	"annual-report-analyzer/internal/logger"
)

// ErrNoListingRegion means the listing page no longer has the expected structure.
var ErrNoListingRegion = errors.New("listing region not found")

var _ interfaces.Discoverer = (*ListingDiscoverer)(nil)

// Selectors locate links and labels on the listing page
type Selectors struct {
	Region  string // container holding the document links
	Section string // optional narrower container inside Region
	Item    string // link elements inside the section
	Label   string // company name elements, in DOM order
}

// Window is a half-open [Start, End) range over discovered items.
type Window struct {
	Start int
	End   int
}

// Apply clips items to the window, tolerating short input.
func (w Window) Apply(items []string) []string {
	start, end := max(w.Start, 0), min(w.End, len(items))
	if start >= end {
		return []string{}
	}
	return items[start:end]
}

// ListingDiscoverer renders the listing page and reads links and labels from it.
// Links and labels come from two independent renders.
type ListingDiscoverer struct {
	renderer   interfaces.PageRenderer
	listingURL string
	selectors  Selectors
	window     Window
}

func NewListingDiscoverer(renderer interfaces.PageRenderer, listingURL string, selectors Selectors, window Window) *ListingDiscoverer {
	return &ListingDiscoverer{
		renderer:   renderer,
		listingURL: listingURL,
		selectors:  selectors,
		window:     window,
	}
}

func (d *ListingDiscoverer) load(ctx context.Context) (*goquery.Document, error) {
	html, err := d.renderer.Render(ctx, d.listingURL)
	if err != nil {
		return nil, fmt.Errorf("render listing page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}
	return doc, nil
}

// DiscoverLinks returns the absolute document URLs inside the configured
// window of the link region.
func (d *ListingDiscoverer) DiscoverLinks(ctx context.Context) ([]string, error) {
	doc, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	region := doc.Find(d.selectors.Region).First()
	if region.Length() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoListingRegion, d.selectors.Region)
	}
	if d.selectors.Section != "" {
		region = region.Find(d.selectors.Section).First()
		if region.Length() == 0 {
			return nil, fmt.Errorf("%w: %q inside %q", ErrNoListingRegion, d.selectors.Section, d.selectors.Region)
		}
	}

	base, err := url.Parse(d.listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	var hrefs []string
	region.Find(d.selectors.Item).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, strings.TrimSpace(href))
	})

	links := make([]string, 0, len(hrefs))
	for _, href := range d.window.Apply(hrefs) {
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			logger.Warn(ctx, "Skipping malformed document link", "href", href, "error", err)
			continue
		}
		links = append(links, base.ResolveReference(ref).String())
	}

	logger.Info(ctx, "Discovered document links",
		"listing_url", d.listingURL,
		"candidates", len(hrefs),
		"links", len(links))
	return links, nil
}

// DiscoverLabels returns every label text on the page in DOM order. The
// caller windows and aligns them with the links.
func (d *ListingDiscoverer) DiscoverLabels(ctx context.Context) ([]string, error) {
	doc, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	labels := []string{}
	doc.Find(d.selectors.Label).Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(s.Text()))
	})

	logger.Info(ctx, "Discovered company labels", "listing_url", d.listingURL, "labels", len(labels))
	return labels, nil
}
