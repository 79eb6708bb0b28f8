package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const (
	MAX_PAGE_SIZE     = 100
	DEFAULT_PAGE_SIZE = 10
)

type BaseModel struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Paging struct {
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	Pages    int64 `json:"pages"`
	PageSize int64 `json:"page_size"`
}

// ---------------------------------------------------------------------------------//
// Scopes
// --------------------------------------------------------------------------------//

func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// NormalizePageParams clamps the caller-supplied page params to the
// supported range: page >= 1, 1 <= pageSize <= MAX_PAGE_SIZE.
func NormalizePageParams(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}

	switch {
	case pageSize > MAX_PAGE_SIZE:
		pageSize = MAX_PAGE_SIZE
	case pageSize < 1:
		pageSize = DEFAULT_PAGE_SIZE
	}

	return page, pageSize
}

func newPaging(page, pageSize, total int64) *Paging {
	paging := &Paging{Page: page, Total: total, PageSize: pageSize}
	if paging.Page == 0 {
		paging.Page = 1
	}

	paging.Pages = int64(math.Ceil(float64(paging.Total) / float64(pageSize)))
	if paging.Pages == 0 {
		paging.Pages = 1
	}

	return paging
}
