package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a static, pre-rendered page backed by goquery. ChromePage
// snapshots are Documents, and it answers the same queries as a live tab.
type Document struct {
	doc *goquery.Document
	url string

	// OnClick, when set, is called for every element click.
	OnClick func(el Element) error
}

// NewDocument parses html and reports url as its location.
func NewDocument(html, url string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser: parse document: %w", err)
	}
	return &Document{doc: doc, url: url}, nil
}

func (d *Document) Navigate(_ context.Context, url string) error {
	d.url = url
	return nil
}

// Submit writes text into the matched input's value attribute.
func (d *Document) Submit(_ context.Context, selector, text string) error {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("browser: submit: no element matches %s", selector)
	}
	sel.SetAttr("value", text)
	return nil
}

// Scroll is a no-op: a static document has nothing more to render.
func (d *Document) Scroll(context.Context, string, int) error {
	return nil
}

func (d *Document) Count(_ context.Context, selector string) (int, error) {
	return d.doc.Find(selector).Length(), nil
}

func (d *Document) QueryAll(_ context.Context, selector string) ([]Element, error) {
	var out []Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &docElement{doc: d, sel: s})
	})
	return out, nil
}

func (d *Document) Location(context.Context) (string, error) {
	return d.url, nil
}

// Snapshot returns d itself; a static document does not change under it.
func (d *Document) Snapshot(context.Context) (*Document, error) {
	return d, nil
}

type docElement struct {
	doc *Document
	sel *goquery.Selection
}

func (e *docElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *docElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *docElement) Click(context.Context) error {
	if e.doc.OnClick != nil {
		return e.doc.OnClick(e)
	}
	return nil
}

func (e *docElement) Parent(context.Context) (Element, error) {
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil, ErrDetached
	}
	return &docElement{doc: e.doc, sel: parent}, nil
}
