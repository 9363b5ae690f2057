package vote

import (
	"sort"
)

// rankedGroup 是同一个游戏的所有投票聚合的结果
type rankedGroup struct {
	GameID   string
	Score    float64
	Votes    int
	Comments []string

	positionSum int
}

// rankGroups 按游戏分组累加权重，按分数降序、游戏ID升序排列。
// rows 必须按插入顺序排列，评论保持这个顺序。
func rankGroups(rows []scoreRow, scorer Scorer) []rankedGroup {
	index := make(map[string]int)
	groups := make([]rankedGroup, 0)
	for _, r := range rows {
		i, ok := index[r.GameID]
		if !ok {
			i = len(groups)
			index[r.GameID] = i
			groups = append(groups, rankedGroup{GameID: r.GameID, Comments: []string{}})
		}
		g := &groups[i]
		g.positionSum += scorer.clamp(r.Position)
		g.Votes++
		if r.Comment != "" {
			g.Comments = append(g.Comments, r.Comment)
		}
	}

	for i := range groups {
		groups[i].Score = scorer.Total(groups[i].Votes, groups[i].positionSum)
	}

	sort.Slice(groups, func(a, b int) bool {
		if groups[a].Score != groups[b].Score {
			return groups[a].Score > groups[b].Score
		}
		return groups[a].GameID < groups[b].GameID
	})
	return groups
}
