package gmaps

import (
	"context"
	"fmt"
	"strings"

	"gmaps-scraper/browser"
	"gmaps-scraper/models"
	"gmaps-scraper/services"
	"gmaps-scraper/utils"
)

// Extractor reads one Record from the currently open detail panel.
type Extractor struct {
	page   browser.Page
	logger *utils.Logger
}

func NewExtractor(page browser.Page, logger *utils.Logger) *Extractor {
	return &Extractor{page: page, logger: logger}
}

// Extract populates a Record for listing from a snapshot of the open panel.
// Missing elements leave string fields empty and numeric fields absent;
// numeric text that is present but unparseable fails the whole listing with
// a *services.FieldParseError.
func (e *Extractor) Extract(ctx context.Context, listing Listing) (*models.Record, error) {
	rec := &models.Record{}

	name, ok, err := listing.Anchor.Attribute(ctx, NameAttribute)
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	if !ok {
		name = ""
	}
	rec.Name = models.Some(name)

	panel, err := e.page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	if rec.Address, err = e.textField(ctx, panel, AddressSelector); err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	if rec.Website, err = e.textField(ctx, panel, WebsiteSelector); err != nil {
		return nil, fmt.Errorf("website: %w", err)
	}
	if rec.PhoneNumber, err = e.textField(ctx, panel, PhoneSelector); err != nil {
		return nil, fmt.Errorf("phone_number: %w", err)
	}
	if rec.ReviewsCount, err = e.reviewsCount(ctx, panel); err != nil {
		return nil, err
	}
	if rec.ReviewsAverage, err = e.reviewsAverage(ctx, panel); err != nil {
		return nil, err
	}

	rec.Latitude, rec.Longitude = e.coordinates(ctx, panel)
	return rec, nil
}

// first returns the first element matching selector, or nil when none do.
func first(ctx context.Context, panel *browser.Document, selector string) (browser.Element, error) {
	els, err := panel.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, nil
	}
	return els[0], nil
}

// textField returns the element's text with only surrounding whitespace
// removed.
func (e *Extractor) textField(ctx context.Context, panel *browser.Document, selector string) (models.Optional[string], error) {
	el, err := first(ctx, panel, selector)
	if err != nil {
		return models.None[string](), err
	}
	if el == nil {
		return models.Some(""), nil
	}
	text, err := el.Text(ctx)
	if err != nil {
		return models.None[string](), err
	}
	return models.Some(strings.TrimSpace(text)), nil
}

func (e *Extractor) reviewsCount(ctx context.Context, panel *browser.Document) (models.Optional[int], error) {
	el, err := first(ctx, panel, ReviewsCountSelector)
	if err != nil {
		return models.None[int](), fmt.Errorf("reviews_count: %w", err)
	}
	if el == nil {
		return models.None[int](), nil
	}
	text, err := el.Text(ctx)
	if err != nil {
		return models.None[int](), fmt.Errorf("reviews_count: %w", err)
	}
	n, err := services.ParseReviewCount(text)
	if err != nil {
		return models.None[int](), err
	}
	return models.Some(n), nil
}

func (e *Extractor) reviewsAverage(ctx context.Context, panel *browser.Document) (models.Optional[float64], error) {
	el, err := first(ctx, panel, ReviewsAverageSelector)
	if err != nil {
		return models.None[float64](), fmt.Errorf("reviews_average: %w", err)
	}
	if el == nil {
		return models.None[float64](), nil
	}
	label, ok, err := el.Attribute(ctx, NameAttribute)
	if err != nil {
		return models.None[float64](), fmt.Errorf("reviews_average: %w", err)
	}
	if !ok || label == "" {
		return models.None[float64](), nil
	}
	avg, err := services.ParseReviewAverage(label)
	if err != nil {
		return models.None[float64](), err
	}
	return models.Some(avg), nil
}

// coordinates parses the snapshot's location. Failures are logged and leave
// both values absent.
func (e *Extractor) coordinates(ctx context.Context, panel *browser.Document) (lat, lon models.Optional[float64]) {
	loc, err := panel.Location(ctx)
	if err != nil {
		e.logger.Warn("[gmaps] Could not read page location: %v", err)
		return models.None[float64](), models.None[float64]()
	}

	la, lo, err := services.ParseCoordinates(loc)
	if err != nil {
		e.logger.Warn("[gmaps] %v", err)
		return models.None[float64](), models.None[float64]()
	}
	return models.Some(la), models.Some(lo)
}
