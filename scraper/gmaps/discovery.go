package gmaps

import (
	"context"
	"fmt"

	"gmaps-scraper/browser"
	"gmaps-scraper/utils"
)

// Outcome is the terminal state of a discovery run.
type Outcome int

const (
	// Sufficient means at least the target number of listings rendered.
	Sufficient Outcome = iota
	// Stalled means a scroll produced no new listings before the target.
	Stalled
	// Capped means the scroll iteration ceiling was hit first.
	Capped
)

func (o Outcome) String() string {
	switch o {
	case Sufficient:
		return "sufficient"
	case Stalled:
		return "stalled"
	case Capped:
		return "capped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Listing is one discovered result. Its clickable container is resolved from
// the anchor only when the listing is opened.
type Listing struct {
	Anchor browser.Element
}

// discover scrolls the results feed until target listings have rendered,
// growth stops, or the iteration ceiling is reached.
func (s *Scraper) discover(ctx context.Context, target int) ([]Listing, Outcome, error) {
	previous := 0

	for iteration := 1; ; iteration++ {
		if err := s.page.Scroll(ctx, FeedSelector, s.cfg.ScrollDelta); err != nil {
			return nil, 0, fmt.Errorf("scroll %d: %w", iteration, err)
		}

		current, err := s.settledCount(ctx, previous)
		if err != nil {
			return nil, 0, fmt.Errorf("count %d: %w", iteration, err)
		}

		if current >= target {
			listings, err := s.collectListings(ctx, target)
			if err != nil {
				return nil, 0, err
			}
			s.logger.Info("[gmaps] Total found: %d", len(listings))
			return listings, Sufficient, nil
		}

		if current == previous {
			listings, err := s.collectListings(ctx, -1)
			if err != nil {
				return nil, 0, err
			}
			s.logger.Info("[gmaps] Arrived at all available listings, total found: %d", len(listings))
			return listings, Stalled, nil
		}

		if iteration >= s.cfg.MaxScrollIterations {
			listings, err := s.collectListings(ctx, -1)
			if err != nil {
				return nil, 0, err
			}
			s.logger.Warn("[gmaps] Scroll ceiling of %d iterations reached with %d/%d listings",
				s.cfg.MaxScrollIterations, len(listings), target)
			return listings, Capped, nil
		}

		s.logger.Debug("[gmaps] Currently found: %d", current)
		previous = current
	}
}

// settledCount waits for the listing count to move away from previous, up to
// the scroll settle timeout, and returns the last count read.
func (s *Scraper) settledCount(ctx context.Context, previous int) (int, error) {
	var current int
	_, err := utils.WaitUntil(ctx, s.cfg.ScrollSettle, s.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		n, err := s.page.Count(ctx, ListingSelector)
		if err != nil {
			return false, err
		}
		current = n
		return n != previous, nil
	})
	return current, err
}

// collectListings fetches the rendered listing anchors in rendering order and
// keeps at most limit of them (all when limit < 0).
func (s *Scraper) collectListings(ctx context.Context, limit int) ([]Listing, error) {
	anchors, err := s.page.QueryAll(ctx, ListingSelector)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	if limit >= 0 && len(anchors) > limit {
		anchors = anchors[:limit]
	}

	listings := make([]Listing, 0, len(anchors))
	for _, a := range anchors {
		listings = append(listings, Listing{Anchor: a})
	}
	return listings, nil
}
