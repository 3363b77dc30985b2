package browser

import (
	"context"
	"errors"
	"testing"
)

const fixture = `<html><body>
<div role="feed">
  <div class="card" id="c1"><a href="https://www.google.com/maps/place/A" aria-label="Cafe A">A</a></div>
  <div class="card" id="c2"><a href="https://www.google.com/maps/place/B" aria-label="Cafe B">B</a></div>
</div>
<input id="searchboxinput" value="">
<span class="empty"></span>
</body></html>`

func newFixture(t *testing.T) *Document {
	t.Helper()
	d, err := NewDocument(fixture, "https://www.google.com/maps")
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

func TestDocumentCountAndQuery(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t)

	n, err := d.Count(ctx, `a[href*="https://www.google.com/maps/place"]`)
	if err != nil || n != 2 {
		t.Fatalf("Count = (%d, %v); want (2, nil)", n, err)
	}

	n, err = d.Count(ctx, "table.missing")
	if err != nil || n != 0 {
		t.Fatalf("Count(missing) = (%d, %v); want (0, nil)", n, err)
	}

	els, err := d.QueryAll(ctx, "a")
	if err != nil || len(els) != 2 {
		t.Fatalf("QueryAll = (%d elements, %v); want 2", len(els), err)
	}

	label, ok, err := els[1].Attribute(ctx, "aria-label")
	if err != nil || !ok || label != "Cafe B" {
		t.Errorf("Attribute = (%q, %v, %v); want (Cafe B, true, nil)", label, ok, err)
	}
	if _, ok, _ := els[0].Attribute(ctx, "data-missing"); ok {
		t.Error("missing attribute reported as present")
	}

	text, err := els[0].Text(ctx)
	if err != nil || text != "A" {
		t.Errorf("Text = (%q, %v); want (A, nil)", text, err)
	}
}

func TestDocumentParentAndClick(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t)

	var clicked string
	d.OnClick = func(el Element) error {
		clicked, _, _ = el.Attribute(ctx, "id")
		return nil
	}

	els, _ := d.QueryAll(ctx, "a")
	parent, err := els[1].Parent(ctx)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	if err := parent.Click(ctx); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if clicked != "c2" {
		t.Errorf("clicked: got %q, want c2", clicked)
	}
}

func TestDocumentParentOfRootIsDetached(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t)

	roots, _ := d.QueryAll(ctx, "html")
	if _, err := roots[0].Parent(ctx); !errors.Is(err, ErrDetached) {
		t.Errorf("got %v, want ErrDetached", err)
	}
}

func TestDocumentSubmitAndLocation(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t)

	if err := d.Submit(ctx, "#searchboxinput", "Coffee"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	inputs, _ := d.QueryAll(ctx, "#searchboxinput")
	if v, _, _ := inputs[0].Attribute(ctx, "value"); v != "Coffee" {
		t.Errorf("value: got %q, want Coffee", v)
	}
	if err := d.Submit(ctx, "#nope", "x"); err == nil {
		t.Error("Submit to a missing input should fail")
	}

	_ = d.Navigate(ctx, "https://www.google.com/maps/place/A/@1,2,3z")
	if loc, _ := d.Location(ctx); loc != "https://www.google.com/maps/place/A/@1,2,3z" {
		t.Errorf("Location: got %q", loc)
	}
}

func TestDocumentSnapshotKeepsLocationAndContent(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t)
	if err := d.Navigate(ctx, "https://www.google.com/maps/place/A/@1,2"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	snap, err := d.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	loc, _ := snap.Location(ctx)
	if loc != "https://www.google.com/maps/place/A/@1,2" {
		t.Errorf("Location = %q", loc)
	}
	if n, _ := snap.Count(ctx, "div.card"); n != 2 {
		t.Errorf("Count(div.card) = %d; want 2", n)
	}
}

var (
	_ Page = (*Document)(nil)
	_ Page = (*ChromePage)(nil)
)
