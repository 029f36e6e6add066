package search

import (
	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// All is the sentinel dropdown value that disables a filter step.
const All = "All"

// Query bundles the user-facing filter controls: fuzzy text over name and
// location, plus exact country and year restrictions.
type Query struct {
	Text      string
	Threshold int
	Country   string
	Year      string
}

// Filter applies the query to the table and returns the surviving rows in
// their original relative order. Each step is a no-op when its value is
// "All" or empty; steps compose by intersection.
func Filter(table model.Table, q Query) model.Table {
	var matched map[string]struct{}
	if q.Text != "" {
		matched = Search(q.Text, table, model.SearchFields, q.Threshold)
	}

	out := make(model.Table, 0, len(table))
	for _, c := range table {
		if matched != nil {
			if _, ok := matched[c.Key]; !ok {
				continue
			}
		}
		if q.Country != "" && q.Country != All && c.Country != q.Country {
			continue
		}
		if q.Year != "" && q.Year != All && c.Year != q.Year {
			continue
		}
		out = append(out, c)
	}
	return out
}
