// Package gmaps enumerates Google Maps search results and extracts one
// Record per listing.
package gmaps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gmaps-scraper/browser"
	"gmaps-scraper/config"
	"gmaps-scraper/models"
	"gmaps-scraper/storage"
	"gmaps-scraper/utils"
)

// ListingError is a failure while opening or extracting one listing. The
// listing is dropped and the run continues.
type ListingError struct {
	Term  string
	Index int
	Name  string
	Err   error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %d (%q) for %q: %v", e.Index, e.Name, e.Term, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// TermSummary describes how one plan entry went.
type TermSummary struct {
	Term       string
	Target     int
	Outcome    Outcome
	Discovered int
	Extracted  int
	Failed     int
	Err        error
}

// Scraper drives the search UI through the query plan, one term at a time.
type Scraper struct {
	cfg       *config.Config
	logger    *utils.Logger
	page      browser.Page
	sink      storage.Sink
	extractor *Extractor

	// lastFirst is the first listing name shown for the previous term.
	lastFirst string
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, logger *utils.Logger, page browser.Page, sink storage.Sink) *Scraper {
	return &Scraper{
		cfg:       cfg,
		logger:    logger,
		page:      page,
		sink:      sink,
		extractor: NewExtractor(page, logger),
	}
}

// Run opens the start page and processes every plan entry in order. A term
// that cannot be searched is logged and skipped; only failing to load the
// start page or a cancelled context ends the run early.
func (s *Scraper) Run(ctx context.Context, plan []config.QueryPlanEntry) ([]TermSummary, error) {
	s.logger.Info("[gmaps] Opening %s", s.cfg.StartURL)
	if err := s.page.Navigate(ctx, s.cfg.StartURL); err != nil {
		return nil, err
	}

	ready, err := utils.WaitUntil(ctx, s.cfg.NavigationTimeout, s.cfg.PollInterval, s.present(SearchInputSelector))
	if err != nil {
		return nil, fmt.Errorf("wait for search box: %w", err)
	}
	if !ready {
		return nil, fmt.Errorf("search box %s did not appear within %v", SearchInputSelector, s.cfg.NavigationTimeout)
	}

	summaries := make([]TermSummary, 0, len(plan))
	for i, entry := range plan {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		s.logger.Info("[gmaps] ----- %d - %s (target %d)", i+1, entry.Term, entry.Target)

		summary, err := s.runTerm(ctx, entry)
		summaries = append(summaries, summary)
		if err != nil {
			if ctx.Err() != nil {
				return summaries, ctx.Err()
			}
			s.logger.Error("[gmaps] Term %q failed: %v", entry.Term, err)
		}
	}
	return summaries, nil
}

func (s *Scraper) runTerm(ctx context.Context, entry config.QueryPlanEntry) (TermSummary, error) {
	summary := TermSummary{Term: entry.Term, Target: entry.Target}

	if err := s.search(ctx, entry.Term); err != nil {
		summary.Err = err
		return summary, err
	}

	listings, outcome, err := s.discover(ctx, entry.Target)
	if err != nil {
		summary.Err = fmt.Errorf("discover: %w", err)
		return summary, summary.Err
	}
	summary.Outcome = outcome
	summary.Discovered = len(listings)

	collection := models.NewRecordCollection(entry.Term)
	for i, listing := range listings {
		rec, err := s.scrapeListing(ctx, listing)
		if err != nil {
			if ctx.Err() != nil {
				summary.Err = ctx.Err()
				return summary, ctx.Err()
			}
			lerr := &ListingError{Term: entry.Term, Index: i + 1, Name: s.listingName(ctx, listing), Err: err}
			s.logger.Error("[gmaps] Error occurred while scraping %v", lerr)
			summary.Failed++
			continue
		}
		collection.Append(rec)
		s.logger.Debug("[gmaps] %d/%d %s", i+1, len(listings), rec.Name.OrElse(""))
	}
	summary.Extracted = collection.Len()

	s.logger.Info("[gmaps] %q: %s with %d listings, %d extracted, %d failed",
		entry.Term, outcome, summary.Discovered, summary.Extracted, summary.Failed)

	if err := s.sink.Export(ctx, collection); err != nil {
		summary.Err = fmt.Errorf("export: %w", err)
		return summary, summary.Err
	}
	return summary, nil
}

// search submits term and waits until the results list shows up on a new
// location. After the first term the wait also requires the first listing to
// differ from the previous term's, so the old feed is never mistaken for the
// new one.
func (s *Scraper) search(ctx context.Context, term string) error {
	before, err := s.page.Location(ctx)
	if err != nil {
		return err
	}
	if err := s.page.Submit(ctx, SearchInputSelector, term); err != nil {
		return err
	}

	previous := s.lastFirst
	rendered, err := utils.WaitUntil(ctx, s.cfg.ResultsTimeout, s.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		loc, err := s.page.Location(ctx)
		if err != nil || loc == before {
			return false, err
		}
		first, err := s.firstListingName(ctx)
		if err != nil || first == "" {
			return false, err
		}
		return previous == "" || first != previous, nil
	})
	if err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}
	if !rendered {
		s.logger.Warn("[gmaps] No new results rendered within %v for %q", s.cfg.ResultsTimeout, term)
	}

	if s.lastFirst, err = s.firstListingName(ctx); err != nil {
		return fmt.Errorf("read first listing: %w", err)
	}
	return nil
}

func (s *Scraper) firstListingName(ctx context.Context) (string, error) {
	anchors, err := s.page.QueryAll(ctx, ListingSelector)
	if err != nil || len(anchors) == 0 {
		return "", err
	}
	name, _, err := anchors[0].Attribute(ctx, NameAttribute)
	if errors.Is(err, browser.ErrDetached) {
		return "", nil
	}
	return name, err
}

// scrapeListing opens the listing's detail panel and extracts its record.
func (s *Scraper) scrapeListing(ctx context.Context, listing Listing) (*models.Record, error) {
	name := s.listingName(ctx, listing)

	container, err := listing.Anchor.Parent(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve container: %w", err)
	}
	if err := container.Click(ctx); err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}

	opened, err := utils.WaitUntil(ctx, s.cfg.PanelSettle, s.cfg.PollInterval, s.panelOpened(name))
	if err != nil {
		return nil, fmt.Errorf("wait for panel: %w", err)
	}
	if !opened {
		s.logger.Debug("[gmaps] Panel for %q not settled after %v, extracting anyway", name, s.cfg.PanelSettle)
	}

	return s.extractor.Extract(ctx, listing)
}

// panelOpened holds once the location carries coordinates and the panel
// heading shows name. An unnamed listing only needs the coordinates.
func (s *Scraper) panelOpened(name string) utils.Condition {
	return func(ctx context.Context) (bool, error) {
		loc, err := s.page.Location(ctx)
		if err != nil || !strings.Contains(loc, "/@") {
			return false, err
		}
		if name == "" {
			return true, nil
		}
		headings, err := s.page.QueryAll(ctx, PanelHeadingSelector)
		if err != nil || len(headings) == 0 {
			return false, err
		}
		text, err := headings[0].Text(ctx)
		if errors.Is(err, browser.ErrDetached) {
			return false, nil
		}
		return strings.TrimSpace(text) == name, err
	}
}

func (s *Scraper) listingName(ctx context.Context, listing Listing) string {
	name, _, err := listing.Anchor.Attribute(ctx, NameAttribute)
	if err != nil {
		if !errors.Is(err, browser.ErrDetached) {
			s.logger.Debug("[gmaps] Could not read listing name: %v", err)
		}
		return ""
	}
	return name
}

func (s *Scraper) present(selector string) utils.Condition {
	return func(ctx context.Context) (bool, error) {
		n, err := s.page.Count(ctx, selector)
		return n > 0, err
	}
}
