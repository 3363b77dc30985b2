package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"gmaps-scraper/utils"
)

const refAttr = "data-gmaps-ref"

// Options configures the Chrome session.
type Options struct {
	Headless          bool
	ChromeBin         string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

// ChromePage drives one Chrome tab through chromedp.
type ChromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *utils.Logger
}

// NewChromePage launches Chrome and opens a tab. Close releases both.
func NewChromePage(opts Options, logger *utils.Logger) (*ChromePage, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = FindChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	return &ChromePage{
		ctx: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		opts:   opts,
		logger: logger,
	}, nil
}

// Close shuts down the tab and the browser process.
func (p *ChromePage) Close() error {
	p.cancel()
	return nil
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *ChromePage) eval(ctx context.Context, script string, res interface{}) error {
	return p.run(ctx, p.opts.ActionTimeout, chromedp.Evaluate(script, res))
}

func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, p.opts.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (p *ChromePage) Submit(ctx context.Context, selector, text string) error {
	err := p.run(ctx, p.opts.ActionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
		chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("browser: submit %q: %w", text, err)
	}
	return nil
}

func (p *ChromePage) Scroll(ctx context.Context, selector string, deltaY int) error {
	script := fmt.Sprintf(`(function(sel, dy) {
		const el = document.querySelector(sel);
		if (el) {
			el.scrollBy(0, dy);
		} else {
			window.scrollBy(0, dy);
		}
		return true;
	})(%s, %d)`, jsString(selector), deltaY)

	var ok bool
	if err := p.eval(ctx, script, &ok); err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

func (p *ChromePage) Count(ctx context.Context, selector string) (int, error) {
	var n int
	script := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := p.eval(ctx, script, &n); err != nil {
		return 0, fmt.Errorf("browser: count %s: %w", selector, err)
	}
	return n, nil
}

// tagScript marks every match with a stable reference attribute so later
// calls can address the same node even after the list re-renders around it.
const tagScript = `(function(sel, attr) {
	const out = [];
	document.querySelectorAll(sel).forEach(function(el) {
		let ref = el.getAttribute(attr);
		if (!ref) {
			window.__gmapsRefSeq = (window.__gmapsRefSeq || 0) + 1;
			ref = String(window.__gmapsRefSeq);
			el.setAttribute(attr, ref);
		}
		out.push(ref);
	});
	return out;
})(%s, %s)`

func (p *ChromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var refs []string
	script := fmt.Sprintf(tagScript, jsString(selector), jsString(refAttr))
	if err := p.eval(ctx, script, &refs); err != nil {
		return nil, fmt.Errorf("browser: query %s: %w", selector, err)
	}

	elements := make([]Element, 0, len(refs))
	for _, ref := range refs {
		elements = append(elements, &chromeElement{page: p, ref: ref})
	}
	return elements, nil
}

func (p *ChromePage) Location(ctx context.Context) (string, error) {
	var url string
	if err := p.run(ctx, p.opts.ActionTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browser: location: %w", err)
	}
	return url, nil
}

// Snapshot reads the document's outer HTML and the location in a single run.
func (p *ChromePage) Snapshot(ctx context.Context) (*Document, error) {
	var html, url string
	err := p.run(ctx, p.opts.ActionTimeout,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Location(&url),
	)
	if err != nil {
		return nil, fmt.Errorf("browser: snapshot: %w", err)
	}
	return NewDocument(html, url)
}

type chromeElement struct {
	page *ChromePage
	ref  string
}

type lookup struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (e *chromeElement) selector() string {
	return fmt.Sprintf(`[%s="%s"]`, refAttr, e.ref)
}

func (e *chromeElement) lookup(ctx context.Context, body string) (lookup, error) {
	script := fmt.Sprintf(`(function(el) {
		if (!el) return {found: false, value: ""};
		%s
	})(document.querySelector(%s))`, body, jsString(e.selector()))

	var res lookup
	err := e.page.eval(ctx, script, &res)
	return res, err
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	res, err := e.lookup(ctx, `return {found: true, value: el.innerText || ""};`)
	if err != nil {
		return "", fmt.Errorf("browser: read text: %w", err)
	}
	if !res.Found {
		return "", ErrDetached
	}
	return res.Value, nil
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	body := fmt.Sprintf(`const v = el.getAttribute(%s);
		return {found: v !== null, value: v || ""};`, jsString(name))

	// A detached node and a missing attribute both come back as not found.
	res, err := e.lookup(ctx, body)
	if err != nil {
		return "", false, fmt.Errorf("browser: read attribute %s: %w", name, err)
	}
	return res.Value, res.Found, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := e.page.run(ctx, e.page.opts.ActionTimeout, chromedp.Click(e.selector(), chromedp.ByQuery)); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

func (e *chromeElement) Parent(ctx context.Context) (Element, error) {
	body := fmt.Sprintf(`const parent = el.parentElement;
		if (!parent) return {found: false, value: ""};
		let ref = parent.getAttribute(%[1]s);
		if (!ref) {
			window.__gmapsRefSeq = (window.__gmapsRefSeq || 0) + 1;
			ref = String(window.__gmapsRefSeq);
			parent.setAttribute(%[1]s, ref);
		}
		return {found: true, value: ref};`, jsString(refAttr))

	res, err := e.lookup(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("browser: resolve parent: %w", err)
	}
	if !res.Found {
		return nil, ErrDetached
	}
	return &chromeElement{page: e.page, ref: res.Value}, nil
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// FindChromeBinary locates a Chrome/Chromium binary.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
