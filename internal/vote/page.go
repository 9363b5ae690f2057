package vote

import "github.com/SlpAus/games-top100-backend/internal/platform/apperr"

// 每页条数的范围
const (
	MinLimit = 5
	MaxLimit = 100
)

func validatePage(page, limit int) error {
	if page < 1 {
		return apperr.Input("page must be at least 1")
	}
	if limit < MinLimit || limit > MaxLimit {
		return apperr.Input("limit must be between %d and %d", MinLimit, MaxLimit)
	}
	return nil
}

// pageCount 返回总页数，没有结果时为0
func pageCount(total, limit int) int {
	return (total + limit - 1) / limit
}

// pageBounds 返回第 page 页在长度为 total 的列表中的 [from, to)
func pageBounds(total, page, limit int) (int, int) {
	from := min((page-1)*limit, total)
	to := min(from+limit, total)
	return from, to
}
