package vote

import "sort"

// TagCount 是一个标签在过滤后的投票中出现的次数
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Statistics 是六个维度的标签计数
type Statistics struct {
	Genres       []TagCount `json:"genres"`
	Gameplay     []TagCount `json:"gameplay"`
	Perspectives []TagCount `json:"perspectives"`
	Settings     []TagCount `json:"settings"`
	Topics       []TagCount `json:"topics"`
	Platforms    []TagCount `json:"platforms"`
}

type tagCounter map[string]int

func (c tagCounter) add(tags []string) {
	for _, t := range tags {
		c[t]++
	}
}

// sorted 按次数降序、名字升序输出
func (c tagCounter) sorted() []TagCount {
	out := make([]TagCount, 0, len(c))
	for name, n := range c {
		out = append(out, TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// countTags 展开每一票的标签集合并计数，每票每个标签计一次
func countTags(rows []tagRow) Statistics {
	genres, gameplay, perspectives := tagCounter{}, tagCounter{}, tagCounter{}
	settings, topics, platforms := tagCounter{}, tagCounter{}, tagCounter{}
	for _, r := range rows {
		genres.add(r.Genres)
		gameplay.add(r.Gameplay)
		perspectives.add(r.Perspectives)
		settings.add(r.Settings)
		topics.add(r.Topics)
		platforms.add(r.Platforms)
	}
	return Statistics{
		Genres:       genres.sorted(),
		Gameplay:     gameplay.sorted(),
		Perspectives: perspectives.sorted(),
		Settings:     settings.sorted(),
		Topics:       topics.sorted(),
		Platforms:    platforms.sorted(),
	}
}
