package ranking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/pkg/domain"
)

func ptr[T any](v T) *T { return &v }

func recordRow(rankingID int64, title string, pos, bookID int64, bookTitle string) domain.RankingRow {
	return domain.RankingRow{
		RankingID:      rankingID,
		Title:          title,
		NumerationType: domain.NumerationDecimal,
		RecordPosition: ptr(pos),
		BookID:         ptr(bookID),
		BookTitle:      ptr(bookTitle),
		Format:         ptr("paper"),
		Author:         ptr("Frank Herbert"),
		Genre:          ptr("Science Fiction"),
	}
}

func emptyRow(rankingID int64, title string) domain.RankingRow {
	return domain.RankingRow{RankingID: rankingID, Title: title, NumerationType: domain.NumerationRoman}
}

func TestGroupPreservesFirstSeenOrderAndCounts(t *testing.T) {
	rows := []domain.RankingRow{
		recordRow(3, "Favourites", 1, 10, "Dune"),
		recordRow(3, "Favourites", 2, 11, "Hyperion"),
		emptyRow(5, "To read"),
		recordRow(7, "Classics", 1, 12, "Emma"),
	}

	got := Group(rows)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 5, 7}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Len(t, got[0].Books, 2)
	assert.Equal(t, "Dune", got[0].Books[0].BookTitle)
	assert.Equal(t, int64(2), got[0].Books[1].RecordPosition)
	assert.NotNil(t, got[1].Books)
	assert.Empty(t, got[1].Books)
	assert.Equal(t, domain.NumerationRoman, got[1].NumerationType)
	assert.Len(t, got[2].Books, 1)
}

func TestGroupBooksLengthMatchesNonNullPositions(t *testing.T) {
	rows := []domain.RankingRow{
		recordRow(1, "A", 1, 1, "x"),
		recordRow(1, "A", 4, 2, "y"),
		recordRow(1, "A", 9, 3, "z"),
		recordRow(2, "B", 2, 4, "w"),
	}
	want := map[int64]int{}
	for _, r := range rows {
		if r.RecordPosition != nil {
			want[r.RankingID]++
		}
	}
	for _, g := range Group(rows) {
		assert.Equal(t, want[g.ID], len(g.Books), "ranking %d", g.ID)
	}
}

func TestGroupEmptyInput(t *testing.T) {
	got := Group(nil)
	require.NotNil(t, got)
	require.Empty(t, got)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestSingle(t *testing.T) {
	_, ok := Single(nil)
	assert.False(t, ok)

	r, ok := Single([]domain.RankingRow{emptyRow(4, "Empty")})
	require.True(t, ok)
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"title":"Empty","numerationType":"roman","books":[]}`, string(raw))

	r, ok = Single([]domain.RankingRow{recordRow(8, "Top", 1, 2, "Dune"), recordRow(8, "Top", 2, 3, "Emma")})
	require.True(t, ok)
	assert.Equal(t, int64(8), r.ID)
	assert.Len(t, r.Books, 2)
}
