package models

// Column describes one column of the dishes table.
type Column struct {
	Name       string
	Definition string
}

// DishColumns is the full column set of the dishes table, in table order.
var DishColumns = []Column{
	{Name: "id", Definition: "BIGSERIAL PRIMARY KEY"},
	{Name: "name", Definition: "TEXT NOT NULL CHECK (name <> '')"},
	{Name: "description", Definition: "TEXT"},
	{Name: "price", Definition: "NUMERIC(10,2) NOT NULL CHECK (price >= 0)"},
	{Name: "category", Definition: "TEXT"},
	{Name: "delivery_time", Definition: "INTEGER CHECK (delivery_time >= 0)"},
	{Name: "rating", Definition: "NUMERIC(2,1) CHECK (rating >= 0 AND rating <= 5)"},
	{Name: "image_url", Definition: "TEXT"},
	{Name: "created_at", Definition: "TIMESTAMPTZ NOT NULL DEFAULT NOW()"},
}

// OptionalColumns were added to the table after its first release. Older
// tables may lack them; they are added in place and never rewrite rows.
var OptionalColumns = []Column{
	DishColumns[5], // delivery_time
	DishColumns[6], // rating
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
