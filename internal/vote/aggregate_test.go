package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankGroupsOrdering(t *testing.T) {
	rows := []scoreRow{
		{ID: 1, GameID: "b", Position: 1, Comment: "first"},
		{ID: 2, GameID: "a", Position: 1},
		{ID: 3, GameID: "c", Position: 30, Comment: "meh"},
		{ID: 4, GameID: "b", Position: 30, Comment: ""},
		{ID: 5, GameID: "b", Position: 2, Comment: "second"},
		{ID: 6, GameID: "d", Position: 1},
	}
	groups := rankGroups(rows, NewScorer(30, 10))
	require.Len(t, groups, 4)

	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.GameID
	}
	// a 和 d 同分，按ID升序
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)
	assert.Equal(t, 3, groups[0].Votes)
	assert.Equal(t, []string{"first", "second"}, groups[0].Comments)
	assert.NotNil(t, groups[1].Comments)
	assert.Empty(t, groups[1].Comments)

	for i := 1; i < len(groups); i++ {
		prev, cur := groups[i-1], groups[i]
		assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.GameID < cur.GameID))
	}
}

func TestRankGroupsExactTieUsesGameID(t *testing.T) {
	// 1+6 == 3+4，两组总分完全相同
	rows := []scoreRow{
		{ID: 1, GameID: "b", Position: 1},
		{ID: 2, GameID: "b", Position: 6},
		{ID: 3, GameID: "a", Position: 3},
		{ID: 4, GameID: "a", Position: 4},
	}
	groups := rankGroups(rows, NewScorer(30, 10))
	require.Len(t, groups, 2)
	assert.Equal(t, groups[0].Score, groups[1].Score)
	assert.Equal(t, "a", groups[0].GameID)
	assert.Equal(t, "b", groups[1].GameID)
}

func TestRankGroupsEqualPositionSumsTie(t *testing.T) {
	s := NewScorer(30, 10)
	for p1 := 1; p1 <= 30; p1++ {
		for p2 := p1; p2 <= 30; p2++ {
			for q1 := 1; q1 <= 30; q1++ {
				q2 := p1 + p2 - q1
				if q2 < 1 || q2 > 30 {
					continue
				}
				groups := rankGroups([]scoreRow{
					{ID: 1, GameID: "x", Position: p1},
					{ID: 2, GameID: "x", Position: p2},
					{ID: 3, GameID: "y", Position: q1},
					{ID: 4, GameID: "y", Position: q2},
				}, s)
				if groups[0].Score != groups[1].Score {
					t.Fatalf("{%d,%d} 与 {%d,%d} 应同分: %v != %v", p1, p2, q1, q2, groups[0].Score, groups[1].Score)
				}
			}
		}
	}
}

func TestPaging(t *testing.T) {
	assert.Equal(t, 0, pageCount(0, 20))
	assert.Equal(t, 1, pageCount(20, 20))
	assert.Equal(t, 2, pageCount(21, 20))
	assert.Equal(t, 3, pageCount(11, 5))

	from, to := pageBounds(11, 3, 5)
	assert.Equal(t, 10, from)
	assert.Equal(t, 11, to)

	from, to = pageBounds(11, 9, 5)
	assert.Equal(t, from, to)

	assert.Error(t, validatePage(0, 20))
	assert.Error(t, validatePage(1, 4))
	assert.Error(t, validatePage(1, 101))
	assert.NoError(t, validatePage(1, 5))
	assert.NoError(t, validatePage(3, 100))
}

func TestCountTags(t *testing.T) {
	stats := countTags([]tagRow{
		{Genres: []string{"Action", "RPG"}, Platforms: []string{"PC"}},
		{Genres: []string{"RPG"}, Platforms: []string{"PC", "Switch"}},
	})
	assert.Equal(t, []TagCount{{Name: "RPG", Count: 2}, {Name: "Action", Count: 1}}, stats.Genres)
	assert.Equal(t, []TagCount{{Name: "PC", Count: 2}, {Name: "Switch", Count: 1}}, stats.Platforms)
	assert.NotNil(t, stats.Topics)
	assert.Empty(t, stats.Topics)
}

func TestParseFilter(t *testing.T) {
	age := 4
	f, err := ParseFilter("female", &age, "critic")
	require.NoError(t, err)
	assert.Equal(t, "g=female;a=4;grp=critic", f.Key())

	f, err = ParseFilter("", nil, "")
	require.NoError(t, err)
	assert.Equal(t, FilterOptions{}, f)

	_, err = ParseFilter("robot", nil, "")
	assert.Error(t, err)
	bad := 10
	_, err = ParseFilter("", &bad, "")
	assert.Error(t, err)
	_, err = ParseFilter("", nil, "pilots")
	assert.Error(t, err)
}
