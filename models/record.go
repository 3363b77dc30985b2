package models

// Record holds the attributes extracted from one place listing.
// Every field is independently optional.
type Record struct {
	Name           Optional[string]
	Address        Optional[string]
	Website        Optional[string]
	PhoneNumber    Optional[string]
	ReviewsCount   Optional[int]
	ReviewsAverage Optional[float64]
	Latitude       Optional[float64]
	Longitude      Optional[float64]
}

// RecordCollection is the ordered, append-only result set of one search term.
// It is owned by the scraper while the term runs and handed to the sinks once.
type RecordCollection struct {
	Term    string
	records []*Record
}

// NewRecordCollection starts an empty collection for term.
func NewRecordCollection(term string) *RecordCollection {
	return &RecordCollection{Term: term, records: make([]*Record, 0)}
}

// Append adds r; the caller must not touch r afterwards.
func (c *RecordCollection) Append(r *Record) {
	c.records = append(c.records, r)
}

// Len returns the number of records collected so far.
func (c *RecordCollection) Len() int {
	return len(c.records)
}

// Records returns a copy of the record slice in insertion order.
func (c *RecordCollection) Records() []*Record {
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out
}
