package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultLimit, 0: DefaultLimit, 10: 10, MaxLimit + 50: MaxLimit}
	for in, want := range cases {
		require.Equal(t, want, NormalizeLimit(in), "limit %d", in)
	}
	require.Equal(t, DefaultLimit+1, LimitWithBuffer(0))
}

func TestCursorEncodingSurvivesParse(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 3, 4, 10, 30, 0, 123, time.UTC),
		ID:        uuid.New(),
	}

	parsed, err := ParseCursor(EncodeCursor(cursor))
	require.NoError(t, err)
	require.True(t, parsed.CreatedAt.Equal(cursor.CreatedAt))
	require.Equal(t, cursor.ID, parsed.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	blank, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, blank)

	_, err = ParseCursor("not base64!")
	require.Error(t, err)

	_, err = ParseCursor("bm8tc2VwYXJhdG9y")
	require.ErrorIs(t, err, errMalformedCursor)

	_, err = ParseCursor(EncodeCursor(Cursor{ID: uuid.New()}) + "!")
	require.Error(t, err)
}

func TestTrimSetsNextCursorOnlyWhenMoreRows(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := Trim(rows, 2, key)
	require.Len(t, page.Items, 2)
	require.Equal(t, EncodeCursor(key(rows[1])), page.NextCursor)

	last := Trim(rows[:1], 2, key)
	require.Len(t, last.Items, 1)
	require.Empty(t, last.NextCursor)

	empty := Trim[row](nil, 2, key)
	require.NotNil(t, empty.Items)
	require.Empty(t, empty.Items)
}

type pagedRow struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	CreatedAt time.Time
}

func TestKeysetWalksEveryRowOnce(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&pagedRow{}))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var want []uuid.UUID
	for i := 0; i < 7; i++ {
		// pairs share a timestamp so the id tiebreak is exercised
		row := pagedRow{ID: uuid.New(), CreatedAt: base.Add(time.Duration(i/2) * time.Minute)}
		require.NoError(t, conn.Create(&row).Error)
		want = append(want, row.ID)
	}

	key := func(r pagedRow) Cursor { return Cursor{CreatedAt: r.CreatedAt, ID: r.ID} }
	var seen []uuid.UUID
	next := ""
	for pages := 0; pages < 10; pages++ {
		cursor, err := ParseCursor(next)
		require.NoError(t, err)
		var rows []pagedRow
		require.NoError(t, conn.Scopes(Keyset(cursor, LimitWithBuffer(3))).Find(&rows).Error)
		page := Trim(rows, 3, key)
		for _, r := range page.Items {
			seen = append(seen, r.ID)
		}
		if page.NextCursor == "" {
			break
		}
		next = page.NextCursor
	}
	require.ElementsMatch(t, want, seen)
	require.Len(t, seen, len(want))
}
