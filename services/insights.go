package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

// InsightReport summarises one search term's collection.
type InsightReport struct {
	Term            string
	TotalPlaces     int
	WithWebsite     int
	WithPhone       int
	WithCoordinates int
	RatedPlaces     int
	AverageRating   float64
	TotalReviews    int
	TopRated        []*models.Record
}

// InsightService computes and prints a per-term report. It is used as the
// last sink after the files are written.
type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// Name identifies the sink in logs.
func (s *InsightService) Name() string { return "insights" }

// Export prints the report for c.
func (s *InsightService) Export(_ context.Context, c *models.RecordCollection) error {
	report := s.Generate(c.Term, c.Records())
	s.Print(report)
	s.logger.Debug("[insights] %q: %d places, %d rated", report.Term, report.TotalPlaces, report.RatedPlaces)
	return nil
}

func (s *InsightService) Generate(term string, records []*models.Record) *InsightReport {
	report := &InsightReport{Term: term, TotalPlaces: len(records)}
	if len(records) == 0 {
		return report
	}

	var rated []*models.Record
	var ratingSum float64

	for _, r := range records {
		if r.Website.OrElse("") != "" {
			report.WithWebsite++
		}
		if r.PhoneNumber.OrElse("") != "" {
			report.WithPhone++
		}
		if r.Latitude.Present() && r.Longitude.Present() {
			report.WithCoordinates++
		}
		if n, ok := r.ReviewsCount.Get(); ok {
			report.TotalReviews += n
		}
		if avg, ok := r.ReviewsAverage.Get(); ok {
			rated = append(rated, r)
			ratingSum += avg
		}
	}

	report.RatedPlaces = len(rated)
	if len(rated) > 0 {
		report.AverageRating = round2(ratingSum / float64(len(rated)))
	}

	// Top 5 by rating, more reviews first on ties
	sort.SliceStable(rated, func(i, j int) bool {
		ai, aj := rated[i].ReviewsAverage.OrElse(0), rated[j].ReviewsAverage.OrElse(0)
		if ai != aj {
			return ai > aj
		}
		return rated[i].ReviewsCount.OrElse(0) > rated[j].ReviewsCount.OrElse(0)
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	return report
}

func (s *InsightService) Print(r *InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📍 %s\033[0m\n", truncate(r.Term, 48))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Places scraped   : \033[1m%d\033[0m\n", r.TotalPlaces)
	fmt.Fprintf(w, "  With website     : \033[1m%d\033[0m\n", r.WithWebsite)
	fmt.Fprintf(w, "  With phone       : \033[1m%d\033[0m\n", r.WithPhone)
	fmt.Fprintf(w, "  With coordinates : \033[1m%d\033[0m\n", r.WithCoordinates)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Reviews\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.RatedPlaces > 0 {
		fmt.Fprintf(w, "  Average rating : \033[1;32m%.2f ★\033[0m over %d places\n", r.AverageRating, r.RatedPlaces)
		fmt.Fprintf(w, "  Total reviews  : \033[1;32m%d\033[0m\n", r.TotalReviews)
	} else {
		fmt.Fprintf(w, "  No review data available\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top 5 Highest Rated Places\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopRated) == 0 {
		fmt.Fprintf(w, "  No rated places found\n")
	} else {
		for i, rec := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-40s \033[1;32m%.1f ★\033[0m (%d)\n",
				i+1, truncate(rec.Name.OrElse(""), 38), rec.ReviewsAverage.OrElse(0), rec.ReviewsCount.OrElse(0))
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
