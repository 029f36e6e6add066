// Package search implements fuzzy lookup over the conference table and
// the exact-match filter pipeline layered on top of it.
package search

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/Wei1024/embase-conference-dashboard/internal/model"
)

// Search returns the identity keys of rows whose value in any of the
// given fields is a partial fuzzy match for query at or above threshold.
//
// Scoring is fuzzywuzzy-style partial ratio: the best Levenshtein ratio
// between the shorter string and same-length fragments of the longer one,
// scaled to 0-100. A query that appears verbatim inside a value scores
// 100 regardless of what surrounds it. Matching is case-insensitive;
// absent field values are skipped so they can never match.
//
// An empty query matches every row. Threshold is expected in [0,100];
// lower values are more permissive.
func Search(query string, table model.Table, fields []model.Field, threshold int) map[string]struct{} {
	keys := make(map[string]struct{}, len(table))

	if query == "" {
		for _, c := range table {
			keys[c.Key] = struct{}{}
		}
		return keys
	}

	q := strings.ToLower(query)
	for _, c := range table {
		for _, f := range fields {
			v, ok := c.FieldValue(f)
			if !ok {
				continue
			}
			if fuzzy.PartialRatio(q, strings.ToLower(v)) >= threshold {
				// Row matches if ANY field clears the threshold.
				keys[c.Key] = struct{}{}
				break
			}
		}
	}

	return keys
}
