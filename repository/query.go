package repository

// Direction of an ordering clause.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Filter is an equality predicate. A nil Value matches documents where the
// field is null or missing.
type Filter struct {
	Field string
	Value interface{}
}

// Order is a single sort clause.
type Order struct {
	Field     string
	Direction Direction
}

// Query is an immutable, chainable predicate query.
type Query struct {
	Filters []Filter
	Orders  []Order
	Max     int
}

// NewQuery starts an empty query matching every document.
func NewQuery() Query {
	return Query{}
}

// WhereEqualTo adds an equality filter.
func (q Query) WhereEqualTo(field string, value interface{}) Query {
	out := q.clone()
	out.Filters = append(out.Filters, Filter{Field: field, Value: value})
	return out
}

func (q Query) OrderByAscending(field string) Query {
	out := q.clone()
	out.Orders = append(out.Orders, Order{Field: field, Direction: Ascending})
	return out
}

func (q Query) OrderByDescending(field string) Query {
	out := q.clone()
	out.Orders = append(out.Orders, Order{Field: field, Direction: Descending})
	return out
}

// Limit caps the number of returned documents. Zero means unlimited.
func (q Query) Limit(n int) Query {
	out := q.clone()
	if n < 0 {
		n = 0
	}
	out.Max = n
	return out
}

func (q Query) clone() Query {
	return Query{
		Filters: append([]Filter(nil), q.Filters...),
		Orders:  append([]Order(nil), q.Orders...),
		Max:     q.Max,
	}
}
