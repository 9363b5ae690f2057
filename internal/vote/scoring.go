package vote

// Scorer 把位置线性映射为权重：第1位为 maxScore，第 positions 位为1
type Scorer struct {
	positions int
	maxScore  float64
}

func NewScorer(positions int, maxScore float64) Scorer {
	return Scorer{positions: positions, maxScore: maxScore}
}

// clamp 把超出 [1, positions] 的位置截断到边界
func (s Scorer) clamp(position int) int {
	return min(max(position, 1), s.positions)
}

// Weight 返回单个位置的权重
func (s Scorer) Weight(position int) float64 {
	return s.Total(1, s.clamp(position))
}

// Total 返回 votes 票的权重之和，positionSum 是这些票截断后的位置之和。
// 权重是位置的线性函数，总分只取决于票数和位置和；只做一次除法，
// 票数和位置和相同的两组得到完全相同的浮点数。
func (s Scorer) Total(votes, positionSum int) float64 {
	n := float64(s.positions)
	return (float64(votes)*(n*s.maxScore-1) + (1-s.maxScore)*float64(positionSum)) / (n - 1)
}
