package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"started_at": true,
	"graded_at":  true,
	"title":      true,
	"score":      true,
	"status":     true,
}

// applyPaginationAndSort appends ORDER BY / LIMIT / OFFSET, whitelisting the
// sort column so filter input can never reach the SQL string raw.
func applyPaginationAndSort(query *gorm.DB, limit, offset int, sortBy, sortOrder, defaultSort string) *gorm.DB {
	column := defaultSort
	if sortableColumns[sortBy] {
		column = sortBy
	}

	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, order))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
