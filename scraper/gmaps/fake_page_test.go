package gmaps

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"gmaps-scraper/browser"
	"gmaps-scraper/config"
	"gmaps-scraper/utils"
)

// panel describes one listing's detail panel. Empty strings leave the
// element out of the rendered HTML.
type panel struct {
	address, website, phone string
	reviews                 string
	ratingLabel             string
	ratingNoLabel           bool
	url                     string
}

func (p panel) html(heading string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div role="main">`)
	fmt.Fprintf(&b, `<h1 class="DUwDvf">%s</h1>`, heading)
	if p.address != "" {
		fmt.Fprintf(&b, `<button data-item-id="address"><div class="Io6YTe fontBodyMedium kR99db">%s</div></button>`, p.address)
	}
	if p.website != "" {
		fmt.Fprintf(&b, `<a data-item-id="authority" href="https://%[1]s"><div class="Io6YTe fontBodyMedium">%[1]s</div></a>`, p.website)
	}
	if p.phone != "" {
		fmt.Fprintf(&b, `<button data-item-id="phone:tel:%[1]s"><div class="fontBodyMedium">%[1]s</div></button>`, p.phone)
	}
	if p.reviews != "" {
		fmt.Fprintf(&b, `<button jsaction="pane.reviewChart.moreReviews"><span>%s</span></button>`, p.reviews)
	}
	switch {
	case p.ratingNoLabel:
		b.WriteString(`<div jsaction="pane.reviewChart.moreReviews"><div role="img"></div></div>`)
	case p.ratingLabel != "":
		fmt.Fprintf(&b, `<div jsaction="pane.reviewChart.moreReviews"><div role="img" aria-label="%s"></div></div>`, p.ratingLabel)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// fakePage renders a results feed whose size follows counts, one entry per
// scroll, and opens panels[i] when listing i is clicked.
//
// With settle > 0 the page behaves like the live client: a click changes the
// location to a URL without coordinates at once, and the panel plus the
// final URL only appear after settle further reads. A second search likewise
// keeps the previous term's feed on screen for settle reads.
type fakePage struct {
	t       *testing.T
	counts  []int
	panels  []panel
	scrolls int

	// names labels listing i for term; the default is "Place i".
	names      func(term string, i int) string
	settle     int
	failParent map[int]bool
	failClick  map[int]bool

	term     string
	feed     *browser.Document
	open     *browser.Document
	location string

	pending func()
	lag     int

	navigated []string
	submitted []string
}

func newFakePage(t *testing.T, counts []int, panels []panel) *fakePage {
	t.Helper()
	p := &fakePage{
		t:      t,
		counts: counts,
		panels: panels,
		names:  func(_ string, i int) string { return "Place " + strconv.Itoa(i) },
	}
	p.feed = p.buildFeed("")
	return p
}

func (p *fakePage) buildFeed(term string) *browser.Document {
	p.t.Helper()

	var b strings.Builder
	b.WriteString(`<html><body><input id="searchboxinput"><div role="feed">`)
	for i := range p.panels {
		fmt.Fprintf(&b, `<div class="Nv2PK" data-index="%d"><a class="hfpxzc" href="https://www.google.com/maps/place/Place+%d/data=!4m7" aria-label="%s"></a></div>`,
			i, i, p.names(term, i))
	}
	b.WriteString(`</div></body></html>`)

	feed, err := browser.NewDocument(b.String(), "")
	if err != nil {
		p.t.Fatalf("feed document: %v", err)
	}
	feed.OnClick = p.openPanel
	return feed
}

// later runs step after settle reads, or at once when settle is zero.
func (p *fakePage) later(step func()) {
	if p.settle == 0 {
		step()
		return
	}
	p.pending, p.lag = step, p.settle
}

// tick counts one read against a pending render.
func (p *fakePage) tick() {
	if p.pending == nil {
		return
	}
	if p.lag > 0 {
		p.lag--
		return
	}
	step := p.pending
	p.pending = nil
	step()
}

func (p *fakePage) openPanel(el browser.Element) error {
	raw, ok, _ := el.Attribute(context.Background(), "data-index")
	if !ok {
		return fmt.Errorf("clicked element is not a listing container")
	}
	idx, _ := strconv.Atoi(raw)
	if p.failClick[idx] {
		return fmt.Errorf("listing %d is not clickable", idx)
	}

	target := p.panels[idx]
	doc, err := browser.NewDocument(target.html(p.names(p.term, idx)), target.url)
	if err != nil {
		return err
	}

	if bare, _, found := strings.Cut(target.url, "/@"); found {
		p.location = bare + "/data=!4m7"
	}
	p.later(func() {
		p.open = doc
		p.location = target.url
	})
	return nil
}

func (p *fakePage) rendered() int {
	if len(p.counts) == 0 {
		return 0
	}
	i := p.scrolls - 1
	if i < 0 {
		i = 0
	}
	if i >= len(p.counts) {
		i = len(p.counts) - 1
	}
	n := p.counts[i]
	if n > len(p.panels) {
		p.t.Fatalf("count %d exceeds the %d listings the fake can render", n, len(p.panels))
	}
	return n
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	p.location = url
	return nil
}

func (p *fakePage) Submit(_ context.Context, _ string, text string) error {
	first := len(p.submitted) == 0
	p.submitted = append(p.submitted, text)
	p.location = "https://www.google.com/maps/search/" + strings.ReplaceAll(text, " ", "+")
	p.scrolls = 0
	p.open = nil
	p.pending = nil

	feed := p.buildFeed(text)
	swap := func() {
		p.term = text
		p.feed = feed
	}
	if first {
		swap()
		return nil
	}
	p.later(swap)
	return nil
}

func (p *fakePage) Scroll(context.Context, string, int) error {
	p.scrolls++
	return nil
}

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	p.tick()
	switch selector {
	case ListingSelector:
		return p.rendered(), nil
	case SearchInputSelector:
		return p.feed.Count(ctx, selector)
	}
	if p.open == nil {
		return 0, nil
	}
	return p.open.Count(ctx, selector)
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.tick()
	if selector == ListingSelector {
		all, err := p.feed.QueryAll(ctx, selector)
		if err != nil {
			return nil, err
		}
		all = all[:p.rendered()]
		for i := range all {
			if p.failParent[i] {
				all[i] = detachedAnchor{all[i]}
			}
		}
		return all, nil
	}
	if p.open == nil {
		return nil, nil
	}
	return p.open.QueryAll(ctx, selector)
}

func (p *fakePage) Location(context.Context) (string, error) {
	p.tick()
	return p.location, nil
}

func (p *fakePage) Snapshot(context.Context) (*browser.Document, error) {
	p.tick()
	if p.open == nil {
		return browser.NewDocument("<html><body></body></html>", p.location)
	}
	if err := p.open.Navigate(context.Background(), p.location); err != nil {
		return nil, err
	}
	return p.open, nil
}

// detachedAnchor is a listing anchor whose container has been re-rendered away.
type detachedAnchor struct {
	browser.Element
}

func (detachedAnchor) Parent(context.Context) (browser.Element, error) {
	return nil, browser.ErrDetached
}

func testConfig() *config.Config {
	return &config.Config{
		StartURL:            "https://www.google.com/maps",
		NavigationTimeout:   50 * time.Millisecond,
		ResultsTimeout:      5 * time.Millisecond,
		ScrollSettle:        5 * time.Millisecond,
		PanelSettle:         5 * time.Millisecond,
		PollInterval:        time.Millisecond,
		ScrollDelta:         10000,
		MaxScrollIterations: 50,
	}
}

func quietLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, utils.LevelError) }

// completePanel returns a panel with every field present for listing i.
func completePanel(i int) panel {
	return panel{
		address:     fmt.Sprintf("%d Main St", i+1),
		website:     fmt.Sprintf("place%d.com", i),
		phone:       fmt.Sprintf("+1 555-010%d", i),
		reviews:     "1,234 reviews",
		ratingLabel: "4,5 stars",
		url:         fmt.Sprintf("https://www.google.com/maps/place/Place+%d/@40.71%d,-74.00%d,17z/data=!3m1", i, i, i),
	}
}

func completePanels(n int) []panel {
	out := make([]panel, n)
	for i := range out {
		out[i] = completePanel(i)
	}
	return out
}
