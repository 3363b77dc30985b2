// Package browser abstracts the rendered map UI behind a small set of
// page and element operations.
package browser

import (
	"context"
	"errors"
)

// ErrDetached is returned when an element handle no longer resolves to a node.
var ErrDetached = errors.New("browser: element is no longer attached")

// Element is a handle to one rendered node.
type Element interface {
	// Text returns the rendered inner text.
	Text(ctx context.Context) (string, error)
	// Attribute returns the named attribute and whether it is set.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	// Parent returns the enclosing element.
	Parent(ctx context.Context) (Element, error)
}

// Page is a single browser tab showing the search UI.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Submit replaces the content of the input matched by selector with text
	// and presses Enter.
	Submit(ctx context.Context, selector, text string) error
	// Scroll scrolls the element matched by selector (the window when nothing
	// matches) by deltaY pixels to trigger incremental rendering.
	Scroll(ctx context.Context, selector string, deltaY int) error
	// Count returns the number of nodes matching selector. Zero matches is
	// not an error and never blocks.
	Count(ctx context.Context, selector string) (int, error)
	// QueryAll returns handles for every node matching selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Snapshot captures the rendered DOM and location as a static Document,
	// so several fields can be read from one consistent state.
	Snapshot(ctx context.Context) (*Document, error)
}
