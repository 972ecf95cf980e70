// Package ranking reshapes flat ranking/record rows into nested rankings.
package ranking

import "booktracker/pkg/domain"

// Group folds rows sorted by ranking id then record position into one
// Ranking per distinct id, in first-seen order. Rows without a record
// position open their ranking but add no book, so rankings with no
// records come out with an empty Books slice.
func Group(rows []domain.RankingRow) []domain.Ranking {
	out := make([]domain.Ranking, 0)
	cur := -1
	for _, row := range rows {
		if cur < 0 || out[cur].ID != row.RankingID {
			out = append(out, domain.Ranking{
				ID:             row.RankingID,
				Title:          row.Title,
				NumerationType: row.NumerationType,
				Books:          []domain.RankedBook{},
			})
			cur++
		}
		if row.RecordPosition == nil {
			continue
		}
		out[cur].Books = append(out[cur].Books, bookFromRow(row))
	}
	return out
}

// Single returns the ranking described by rows, which must all share one
// ranking id. It reports false when rows is empty.
func Single(rows []domain.RankingRow) (domain.Ranking, bool) {
	groups := Group(rows)
	if len(groups) == 0 {
		return domain.Ranking{}, false
	}
	return groups[0], true
}

func bookFromRow(row domain.RankingRow) domain.RankedBook {
	return domain.RankedBook{
		RecordPosition: *row.RecordPosition,
		BookID:         deref(row.BookID),
		BookTitle:      deref(row.BookTitle),
		Format:         deref(row.Format),
		Author:         deref(row.Author),
		Genre:          deref(row.Genre),
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
