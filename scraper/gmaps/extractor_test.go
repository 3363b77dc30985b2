package gmaps

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmaps-scraper/models"
	"gmaps-scraper/services"
)

// extractFrom opens listing 0 of a fake page built from p and extracts it.
func extractFrom(t *testing.T, p panel) (*models.Record, error) {
	t.Helper()
	ctx := context.Background()
	page := newFakePage(t, []int{1}, []panel{p})

	s := New(testConfig(), quietLogger(), page, nil)
	listings, err := s.collectListings(ctx, 1)
	if err != nil {
		t.Fatalf("collectListings: %v", err)
	}
	return s.scrapeListing(ctx, listings[0])
}

func TestExtractAllFields(t *testing.T) {
	rec, err := extractFrom(t, panel{
		address:     "  66 Mint St,\n   San Francisco ",
		website:     "bluebottlecoffee.com",
		phone:       "+1 510-653-3394",
		reviews:     "1,234 reviews",
		ratingLabel: "4,5 stars",
		url:         "https://www.google.com/maps/place/Blue+Bottle/@37.7825,-122.4075,17z/data=!3m1",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	strs := []struct {
		field string
		got   models.Optional[string]
		want  string
	}{
		{"name", rec.Name, "Place 0"},
		{"address", rec.Address, "66 Mint St,\n   San Francisco"},
		{"website", rec.Website, "bluebottlecoffee.com"},
		{"phone_number", rec.PhoneNumber, "+1 510-653-3394"},
	}
	for _, s := range strs {
		if v, ok := s.got.Get(); !ok || v != s.want {
			t.Errorf("%s = (%q, %v); want %q", s.field, v, ok, s.want)
		}
	}

	if v, ok := rec.ReviewsCount.Get(); !ok || v != 1234 {
		t.Errorf("reviews_count = (%d, %v); want 1234", v, ok)
	}
	if v, ok := rec.ReviewsAverage.Get(); !ok || v != 4.5 {
		t.Errorf("reviews_average = (%v, %v); want 4.5", v, ok)
	}
	if v, ok := rec.Latitude.Get(); !ok || v != 37.7825 {
		t.Errorf("latitude = (%v, %v); want 37.7825", v, ok)
	}
	if v, ok := rec.Longitude.Get(); !ok || v != -122.4075 {
		t.Errorf("longitude = (%v, %v); want -122.4075", v, ok)
	}
}

func TestExtractMissingElements(t *testing.T) {
	rec, err := extractFrom(t, panel{url: "https://www.google.com/maps/place/Empty/@1.5,2.5,17z"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for field, o := range map[string]models.Optional[string]{
		"address": rec.Address, "website": rec.Website, "phone_number": rec.PhoneNumber,
	} {
		if v, ok := o.Get(); !ok || v != "" {
			t.Errorf("%s = (%q, %v); want empty string", field, v, ok)
		}
	}
	if rec.ReviewsCount.Present() {
		t.Error("reviews_count should be absent")
	}
	if rec.ReviewsAverage.Present() {
		t.Error("reviews_average should be absent")
	}
	if !rec.Latitude.Present() || !rec.Longitude.Present() {
		t.Error("coordinates should still be extracted")
	}
}

func TestExtractRatingWithoutLabelIsAbsent(t *testing.T) {
	rec, err := extractFrom(t, panel{ratingNoLabel: true, url: "https://www.google.com/maps/place/X/@1,2"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.ReviewsAverage.Present() {
		t.Error("reviews_average should be absent when the indicator has no label")
	}
}

func TestExtractBadCoordinatesLeaveThemAbsent(t *testing.T) {
	rec, err := extractFrom(t, panel{address: "1 Main St", url: "https://www.google.com/maps/place/NoCoords"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Latitude.Present() || rec.Longitude.Present() {
		t.Error("coordinates should be absent")
	}
	if v, _ := rec.Address.Get(); v != "1 Main St" {
		t.Errorf("address = %q; want 1 Main St", v)
	}
}

func TestExtractUnparseableNumbersFail(t *testing.T) {
	tests := []struct {
		name  string
		p     panel
		field string
	}{
		{"reviews count", panel{reviews: "No reviews", url: "https://x/@1,2"}, "reviews_count"},
		{"reviews average", panel{ratingLabel: "unrated", url: "https://x/@1,2"}, "reviews_average"},
	}

	for _, tt := range tests {
		_, err := extractFrom(t, tt.p)
		var fieldErr *services.FieldParseError
		if !errors.As(err, &fieldErr) {
			t.Errorf("%s: expected FieldParseError, got %v", tt.name, err)
			continue
		}
		if fieldErr.Field != tt.field {
			t.Errorf("%s: field = %q; want %q", tt.name, fieldErr.Field, tt.field)
		}
	}
}

func TestExtractWaitsForPanelToSettle(t *testing.T) {
	ctx := context.Background()
	page := newFakePage(t, []int{3}, completePanels(3))
	page.settle = 3

	cfg := testConfig()
	cfg.PanelSettle = time.Second
	s := New(cfg, quietLogger(), page, nil)

	listings, err := s.collectListings(ctx, -1)
	if err != nil {
		t.Fatalf("collectListings: %v", err)
	}
	for i, l := range listings {
		rec, err := s.scrapeListing(ctx, l)
		if err != nil {
			t.Fatalf("listing %d: %v", i, err)
		}
		want := completePanel(i)
		if v, _ := rec.Address.Get(); v != want.address {
			t.Errorf("listing %d address = %q; want %q", i, v, want.address)
		}
		if !rec.Latitude.Present() || !rec.Longitude.Present() {
			t.Errorf("listing %d coordinates missing", i)
		}
	}
}
