package storage

import (
	"strconv"

	"gmaps-scraper/models"
)

// Columns is the export column order; it follows the Record field order.
var Columns = []string{
	"name", "address", "website", "phone_number",
	"reviews_count", "reviews_average", "latitude", "longitude",
}

// Cell is one table value. Value holds a string, int or float64; Null marks
// an absent numeric value.
type Cell struct {
	Value any
	Null  bool
}

// String renders the cell for text formats; nulls render empty.
func (c Cell) String() string {
	if c.Null {
		return ""
	}
	switch v := c.Value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Table is a flattened, ordered set of rows under named columns.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Flatten turns records into one row each. Absent strings become empty
// cells and absent numbers become nulls.
func Flatten(records []*models.Record) *Table {
	t := &Table{Columns: Columns, Rows: make([][]Cell, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, []Cell{
			stringCell(r.Name),
			stringCell(r.Address),
			stringCell(r.Website),
			stringCell(r.PhoneNumber),
			numberCell(r.ReviewsCount),
			numberCell(r.ReviewsAverage),
			numberCell(r.Latitude),
			numberCell(r.Longitude),
		})
	}
	return t
}

func stringCell(o models.Optional[string]) Cell {
	return Cell{Value: o.OrElse("")}
}

func numberCell[T int | float64](o models.Optional[T]) Cell {
	v, ok := o.Get()
	if !ok {
		return Cell{Null: true}
	}
	return Cell{Value: v}
}
